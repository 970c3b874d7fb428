package site

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// VolumeRef locates a volume for the sitemap.
type VolumeRef struct {
	ID      int
	PubDate string
}

// PaperRef locates a paper page for the sitemap.
type PaperRef struct {
	VolumeID int
	Slug     string
	PubDate  string
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	NS      string     `xml:"xmlns,attr"`
	URLs    []siteURL  `xml:"url"`
}

type siteURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
	LastMod    string `xml:"lastmod,omitempty"`
}

// BuildSitemap renders sitemap.xml content: the index pages, one URL per
// volume, and one per paper.
func BuildSitemap(baseURL string, volumes []VolumeRef, papers []PaperRef) ([]byte, error) {
	set := urlSet{
		NS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []siteURL{
			{Loc: baseURL + "/", ChangeFreq: "monthly", Priority: "1.0"},
			{Loc: baseURL + "/volumes/", ChangeFreq: "monthly", Priority: "0.9"},
			{Loc: baseURL + "/about/", ChangeFreq: "yearly", Priority: "0.7"},
		},
	}

	for _, v := range volumes {
		set.URLs = append(set.URLs, siteURL{
			Loc:        fmt.Sprintf("%s/volumes/vol%04d/", baseURL, v.ID),
			ChangeFreq: "yearly",
			Priority:   "0.8",
			LastMod:    v.PubDate,
		})
	}

	for _, p := range papers {
		set.URLs = append(set.URLs, siteURL{
			Loc:        fmt.Sprintf("%s/volumes/vol%04d/%s/", baseURL, p.VolumeID, p.Slug),
			ChangeFreq: "yearly",
			Priority:   "0.6",
			LastMod:    p.PubDate,
		})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// WriteSitemap builds the sitemap and writes it to path.
func WriteSitemap(path, baseURL string, volumes []VolumeRef, papers []PaperRef) error {
	data, err := BuildSitemap(baseURL, volumes, papers)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing sitemap: %w", err)
	}
	return nil
}

// FeedChannel describes the RSS channel.
type FeedChannel struct {
	Title       string
	BaseURL     string
	Description string
}

// FeedItem is one paper in the RSS feed.
type FeedItem struct {
	Title       string
	URL         string
	Authors     []string
	Description string
	PubDate     string // YYYY-MM-DD; omitted from the feed when unparseable
	DOI         string
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	DC      string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Creators    []string `xml:"dc:creator,omitempty"`
	Description string   `xml:"description,omitempty"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Identifier  string   `xml:"dc:identifier,omitempty"`
}

const rfc822Day = "Mon, 02 Jan 2006 15:04:05 +0000"

// BuildRSS renders an RSS 2.0 feed. Items are emitted in the order given;
// callers pass newest first.
func BuildRSS(ch FeedChannel, items []FeedItem, now time.Time) ([]byte, error) {
	doc := rssDoc{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		DC:      "http://purl.org/dc/elements/1.1/",
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.BaseURL,
			Description:   ch.Description,
			Language:      "en",
			LastBuildDate: now.UTC().Format(rfc822Day),
			AtomLink: atomLink{
				Href: ch.BaseURL + "/rss.xml",
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}

	for _, item := range items {
		entry := rssItem{
			Title:       item.Title,
			Link:        item.URL,
			GUID:        item.URL,
			Creators:    item.Authors,
			Description: item.Description,
		}
		if t, err := time.Parse("2006-01-02", item.PubDate); err == nil {
			entry.PubDate = t.Format("Mon, 02 Jan 2006") + " 00:00:00 +0000"
		}
		if item.DOI != "" {
			entry.Identifier = "https://doi.org/" + item.DOI
		}
		doc.Channel.Items = append(doc.Channel.Items, entry)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding rss feed: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// WriteRSS builds the feed and writes it to path.
func WriteRSS(path string, ch FeedChannel, items []FeedItem, now time.Time) error {
	data, err := BuildRSS(ch, items, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing rss feed: %w", err)
	}
	return nil
}
