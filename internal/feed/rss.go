package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Feed XML structures. A single document type covers both RSS 2.0
// (<rss><channel><item>) and Atom (<feed><entry>); whichever set of
// elements is present gets populated.

type feedDoc struct {
	Channel rssChannel  `xml:"channel"`
	Entries []atomEntry `xml:"entry"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// RSSSource fetches one RSS 2.0 or Atom feed over HTTP.
type RSSSource struct {
	name   string
	url    string
	client *http.Client
}

func NewRSSSource(name, url string) *RSSSource {
	return &RSSSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Fetch(ctx context.Context) ([]NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("rss: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "market-digest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rss: failed to read response: %w", err)
	}

	var doc feedDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("rss: failed to parse XML: %w", err)
	}

	var items []NewsItem
	for _, it := range doc.Channel.Items {
		items = append(items, NewsItem{
			Title:     strings.TrimSpace(it.Title),
			Link:      strings.TrimSpace(it.Link),
			Summary:   strings.TrimSpace(it.Description),
			Source:    s.name,
			Published: parseFeedTime(it.PubDate),
		})
	}
	for _, e := range doc.Entries {
		ts := e.Published
		if ts == "" {
			ts = e.Updated
		}
		items = append(items, NewsItem{
			Title:     strings.TrimSpace(e.Title),
			Link:      entryLink(e.Links),
			Summary:   strings.TrimSpace(e.Summary),
			Source:    s.name,
			Published: parseFeedTime(ts),
		})
	}
	return items, nil
}

func entryLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

// feedTimeFormats covers the date layouts seen across financial feeds.
var feedTimeFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
}

// parseFeedTime returns the zero time when the value is absent or
// unparseable; the aggregator lets such items through the recency filter.
func parseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range feedTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
