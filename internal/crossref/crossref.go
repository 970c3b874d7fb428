// Package crossref builds DOI registration deposits in the Crossref
// 4.4.2 schema.
package crossref

import (
	"encoding/xml"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	schemaVersion  = "4.4.2"
	schemaNS       = "http://www.crossref.org/schema/4.4.2"
	xsiNS          = "http://www.w3.org/2001/XMLSchema-instance"
	jatsNS         = "http://www.ncbi.nlm.nih.gov/JATS1"
	schemaLocation = "http://www.crossref.org/schema/4.4.2 http://www.crossref.org/schema/deposit/crossref4.4.2.xsd"

	batchIDLength = 23
)

// Journal identifies the journal a deposit registers articles for.
type Journal struct {
	FullTitle     string
	AbbrevTitle   string
	DOI           string
	ResourceURL   string
	DepositorName string
	Email         string
}

// Contributor is one author of an article. ORCID, when present, is the
// full https URL form.
type Contributor struct {
	GivenName string
	Surname   string
	ORCID     string
}

// Article carries the per-paper metadata of a deposit entry.
type Article struct {
	Title        string
	Contributors []Contributor
	Abstract     string
	FirstPage    string
	LastPage     string
	DOI          string
	ResourceURL  string
}

type depositBatch struct {
	XMLName        xml.Name `xml:"doi_batch"`
	Version        string   `xml:"version,attr"`
	NS             string   `xml:"xmlns,attr"`
	XSI            string   `xml:"xmlns:xsi,attr"`
	JATS           string   `xml:"xmlns:jats,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Head           head     `xml:"head"`
	Body           body     `xml:"body"`
}

type head struct {
	BatchID    string    `xml:"doi_batch_id"`
	Timestamp  string    `xml:"timestamp"`
	Depositor  depositor `xml:"depositor"`
	Registrant string    `xml:"registrant"`
}

type depositor struct {
	Name  string `xml:"depositor_name"`
	Email string `xml:"email_address"`
}

type body struct {
	Journal journal `xml:"journal"`
}

type journal struct {
	Metadata journalMetadata `xml:"journal_metadata"`
	Issue    journalIssue    `xml:"journal_issue"`
	Articles []journalArticle `xml:"journal_article"`
}

type journalMetadata struct {
	FullTitle   string  `xml:"full_title"`
	AbbrevTitle string  `xml:"abbrev_title"`
	DOIData     doiData `xml:"doi_data"`
}

type doiData struct {
	DOI      string `xml:"doi"`
	Resource string `xml:"resource"`
}

type journalIssue struct {
	PublicationDate publicationDate `xml:"publication_date"`
	Volume          journalVolume   `xml:"journal_volume"`
}

type journalVolume struct {
	Volume string `xml:"volume"`
}

type publicationDate struct {
	MediaType string `xml:"media_type,attr"`
	Month     string `xml:"month"`
	Day       string `xml:"day"`
	Year      string `xml:"year"`
}

type journalArticle struct {
	PublicationType string          `xml:"publication_type,attr"`
	Titles          titles          `xml:"titles"`
	Contributors    contributors    `xml:"contributors"`
	Abstract        *jatsAbstract   `xml:"jats:abstract,omitempty"`
	PublicationDate publicationDate `xml:"publication_date"`
	Pages           pages           `xml:"pages"`
	DOIData         doiData         `xml:"doi_data"`
}

type titles struct {
	Title string `xml:"title"`
}

type contributors struct {
	PersonNames []personName `xml:"person_name"`
}

type personName struct {
	Sequence  string `xml:"sequence,attr"`
	Role      string `xml:"contributor_role,attr"`
	GivenName string `xml:"given_name,omitempty"`
	Surname   string `xml:"surname"`
	ORCID     string `xml:"ORCID,omitempty"`
}

type jatsAbstract struct {
	Lang string `xml:"xml:lang,attr"`
	P    string `xml:"jats:p"`
}

type pages struct {
	FirstPage string `xml:"first_page"`
	LastPage  string `xml:"last_page"`
}

var pubdatePattern = regexp.MustCompile(`(\d+)\s+(\w+)\s+(\d{4})`)

var monthNumbers = map[string]string{
	"January": "01", "February": "02", "March": "03", "April": "04",
	"May": "05", "June": "06", "July": "07", "August": "08",
	"September": "09", "October": "10", "November": "11", "December": "12",
}

// ParsePubDate splits a "DD Month YYYY" publication date into zero-padded
// month, day, and year. When the date does not match, the first of January
// of fallbackYear is used.
func ParsePubDate(pubdate, fallbackYear string) (month, day, year string) {
	m := pubdatePattern.FindStringSubmatch(pubdate)
	if m == nil {
		if fallbackYear == "" {
			fallbackYear = "2025"
		}
		return "01", "01", fallbackYear
	}

	day = m[1]
	if len(day) == 1 {
		day = "0" + day
	}
	month, ok := monthNumbers[m[2]]
	if !ok {
		month = "01"
	}
	return month, day, m[3]
}

// SplitName splits a full name into given name and surname at the last
// space. A single token is all surname.
func SplitName(full string) (given, surname string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// NormalizeORCID trims an ORCID value to its first token and expands bare
// IDs to the https URL form.
func NormalizeORCID(orcid string) string {
	fields := strings.Fields(orcid)
	if len(fields) == 0 {
		return ""
	}
	id := fields[0]
	if !strings.HasPrefix(id, "http") {
		id = "https://orcid.org/" + id
	}
	return id
}

// Build assembles a deposit for one volume's articles. pubdate is the
// volume's "DD Month YYYY" publication date, volumeNumber its printed
// number, fallbackYear the pubyear used when the date cannot be parsed.
func Build(j Journal, pubdate, fallbackYear, volumeNumber string, articles []Article) ([]byte, error) {
	month, day, year := ParsePubDate(pubdate, fallbackYear)
	date := publicationDate{MediaType: "print", Month: month, Day: day, Year: year}

	batch := depositBatch{
		Version:        schemaVersion,
		NS:             schemaNS,
		XSI:            xsiNS,
		JATS:           jatsNS,
		SchemaLocation: schemaLocation,
		Head: head{
			BatchID:   newBatchID(),
			Timestamp: timestamp(time.Now()),
			Depositor: depositor{Name: j.DepositorName, Email: j.Email},
			Registrant: "WEB-FORM",
		},
		Body: body{Journal: journal{
			Metadata: journalMetadata{
				FullTitle:   j.FullTitle,
				AbbrevTitle: j.AbbrevTitle,
				DOIData:     doiData{DOI: j.DOI, Resource: j.ResourceURL},
			},
			Issue: journalIssue{
				PublicationDate: date,
				Volume:          journalVolume{Volume: volumeNumber},
			},
		}},
	}

	for _, a := range articles {
		entry := journalArticle{
			PublicationType: "full_text",
			Titles:          titles{Title: a.Title},
			PublicationDate: date,
			Pages:           pages{FirstPage: orDefault(a.FirstPage, "1"), LastPage: orDefault(a.LastPage, "1")},
			DOIData:         doiData{DOI: a.DOI, Resource: a.ResourceURL},
		}

		for i, c := range a.Contributors {
			sequence := "additional"
			if i == 0 {
				sequence = "first"
			}
			entry.Contributors.PersonNames = append(entry.Contributors.PersonNames, personName{
				Sequence:  sequence,
				Role:      "author",
				GivenName: c.GivenName,
				Surname:   c.Surname,
				ORCID:     c.ORCID,
			})
		}

		if a.Abstract != "" {
			entry.Abstract = &jatsAbstract{Lang: "en", P: a.Abstract}
		}

		batch.Body.Journal.Articles = append(batch.Body.Journal.Articles, entry)
	}

	data, err := xml.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding deposit: %w", err)
	}

	return append([]byte(xml.Header), data...), nil
}

// WriteFile builds the deposit and writes it to path.
func WriteFile(path string, j Journal, pubdate, fallbackYear, volumeNumber string, articles []Article) error {
	data, err := Build(j, pubdate, fallbackYear, volumeNumber, articles)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing deposit: %w", err)
	}
	return nil
}

const batchIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func newBatchID() string {
	var b strings.Builder
	for i := 0; i < batchIDLength; i++ {
		b.WriteByte(batchIDAlphabet[rand.Intn(len(batchIDAlphabet))])
	}
	return b.String()
}

// timestamp renders a deposit timestamp at millisecond precision.
func timestamp(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/1e6)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
