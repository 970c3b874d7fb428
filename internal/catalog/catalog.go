// Package catalog maintains a SQLite index of published papers.
//
// The catalog is derived data: it is rebuilt from the metadata extracted
// out of the LaTeX sources, and can be deleted and regenerated at any
// time. A standalone FTS5 table backs full-text search over titles,
// authors, keywords, and abstracts.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// Record is one paper's row in the catalog.
type Record struct {
	DOI       string   `json:"doi"`
	VolumeID  string   `json:"volume_id"`
	Volume    int      `json:"volume"`
	PaperID   int      `json:"paper_id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Keywords  []string `json:"keywords,omitempty"`
	Year      int      `json:"year"`
	PageStart int      `json:"page_start,omitempty"`
	PageEnd   int      `json:"page_end,omitempty"`
	Abstract  string   `json:"abstract,omitempty"`
}

// DB wraps a SQLite catalog database.
type DB struct {
	db *sql.DB
}

// selectPaperFields is the standard field list for SELECT queries.
const selectPaperFields = `doi, volume_id, volume, paper_id, slug, title,
	authors_json, keywords_json, year, page_start, page_end, abstract`

// Open opens or creates a catalog database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			doi TEXT PRIMARY KEY,
			volume_id TEXT NOT NULL,
			volume INTEGER NOT NULL,
			paper_id INTEGER NOT NULL,
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			keywords_json TEXT,
			year INTEGER NOT NULL,
			page_start INTEGER,
			page_end INTEGER,
			abstract TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_papers_volume ON papers(volume_id);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			doi,
			title,
			authors_text,
			keywords_text,
			abstract,
			year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the catalog and reindexes it from the given records.
// It returns the number of records indexed.
func (d *DB) Rebuild(records []Record) (int, error) {
	if _, err := d.db.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	paperStmt, err := d.db.Prepare(`
		INSERT INTO papers (
			doi, volume_id, volume, paper_id, slug, title,
			authors_json, keywords_json, year, page_start, page_end, abstract
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer paperStmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO papers_fts (doi, title, authors_text, keywords_text, abstract, year)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, rec := range records {
		authorsJSON, err := json.Marshal(rec.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", rec.DOI, err)
		}
		var keywordsJSON []byte
		if len(rec.Keywords) > 0 {
			keywordsJSON, err = json.Marshal(rec.Keywords)
			if err != nil {
				return 0, fmt.Errorf("marshaling keywords for %s: %w", rec.DOI, err)
			}
		}

		_, err = paperStmt.Exec(
			rec.DOI, rec.VolumeID, rec.Volume, rec.PaperID, rec.Slug, rec.Title,
			string(authorsJSON), nullableString(keywordsJSON),
			rec.Year, nullableInt(rec.PageStart), nullableInt(rec.PageEnd),
			nullableStringValue(rec.Abstract),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", rec.DOI, err)
		}

		_, err = ftsStmt.Exec(
			rec.DOI, rec.Title,
			strings.Join(rec.Authors, ", "), strings.Join(rec.Keywords, ", "),
			rec.Abstract, strconv.Itoa(rec.Year),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", rec.DOI, err)
		}
	}

	return len(records), nil
}

// GetByDOI retrieves a record by DOI, or nil if it is not in the catalog.
func (d *DB) GetByDOI(doi string) (*Record, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE doi = ?`, doi)
	return scanRecord(row)
}

// Search performs a full-text search over titles, authors, keywords,
// and abstracts.
func (d *DB) Search(query string, limit int) ([]Record, error) {
	ftsQuery := prepareFTSQuery(query)

	rows, err := d.db.Query(`
		SELECT `+selectPaperFields+`
		FROM papers
		WHERE doi IN (SELECT doi FROM papers_fts WHERE papers_fts MATCH ?)
		ORDER BY volume, paper_id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SearchField performs a search restricted to a single field.
// Supported fields are "title", "author", and "keyword".
func (d *DB) SearchField(field, value string, limit int) ([]Record, error) {
	var ftsQuery string

	switch field {
	case "title":
		ftsQuery = "title:" + prepareFTSQuery(value)
	case "author":
		ftsQuery = "authors_text:" + prepareAuthorQuery(value)
	case "keyword":
		ftsQuery = "keywords_text:" + prepareFTSQuery(value)
	default:
		return nil, fmt.Errorf("unknown search field: %s", field)
	}

	rows, err := d.db.Query(`
		SELECT `+selectPaperFields+`
		FROM papers
		WHERE doi IN (SELECT doi FROM papers_fts WHERE papers_fts MATCH ?)
		ORDER BY volume, paper_id
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", field, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// List returns catalog records in volume and paper order. A volumeID of
// "" lists all volumes; limit <= 0 means no limit.
func (d *DB) List(volumeID string, limit int) ([]Record, error) {
	query := `SELECT ` + selectPaperFields + ` FROM papers`
	var args []interface{}

	if volumeID != "" {
		query += " WHERE volume_id = ?"
		args = append(args, volumeID)
	}
	query += " ORDER BY volume, paper_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the total number of cataloged papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var authorsJSON string
	var keywordsJSON, abstract sql.NullString
	var pageStart, pageEnd sql.NullInt64

	err := s.Scan(
		&rec.DOI, &rec.VolumeID, &rec.Volume, &rec.PaperID, &rec.Slug, &rec.Title,
		&authorsJSON, &keywordsJSON, &rec.Year, &pageStart, &pageEnd, &abstract,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec.Abstract = abstract.String
	if pageStart.Valid {
		rec.PageStart = int(pageStart.Int64)
	}
	if pageEnd.Valid {
		rec.PageEnd = int(pageEnd.Int64)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &rec.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %s: %w", rec.DOI, err)
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &rec.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords JSON for %s: %w", rec.DOI, err)
		}
	}

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix
// matching, so "Tim" matches "Timothy".
func prepareAuthorQuery(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return author
	}

	parts := strings.Fields(author)
	var terms []string
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}

	return "(" + strings.Join(terms, " OR ") + ")"
}
