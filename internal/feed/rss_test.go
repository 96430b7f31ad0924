package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssBody = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Markets rally on earnings</title>
      <link>https://example.com/rally</link>
      <description>Stocks rose broadly.</description>
      <pubDate>Sun, 15 Mar 2026 08:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Oil slides</title>
      <link>https://example.com/oil</link>
      <description>Crude fell 3 percent.</description>
      <pubDate>not a date</pubDate>
    </item>
  </channel>
</rss>`

const atomBody = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom</title>
  <entry>
    <title>Chip maker beats estimates</title>
    <link rel="alternate" href="https://example.com/chips"/>
    <summary>Quarterly revenue up 40 percent.</summary>
    <published>2026-03-15T08:00:00Z</published>
  </entry>
</feed>`

func TestRSSSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	src := NewRSSSource("test", srv.URL)
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Markets rally on earnings" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.Link != "https://example.com/rally" {
		t.Errorf("Unexpected link: %s", first.Link)
	}
	if first.Source != "test" {
		t.Errorf("Unexpected source: %s", first.Source)
	}
	want := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	if !first.Published.Equal(want) {
		t.Errorf("Expected published %v, got %v", want, first.Published)
	}

	if !items[1].Published.IsZero() {
		t.Errorf("Expected zero time for unparseable date, got %v", items[1].Published)
	}
}

func TestRSSSourceFetchAtom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomBody))
	}))
	defer srv.Close()

	src := NewRSSSource("atomtest", srv.URL)
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Link != "https://example.com/chips" {
		t.Errorf("Unexpected link: %s", items[0].Link)
	}
	if items[0].Summary != "Quarterly revenue up 40 percent." {
		t.Errorf("Unexpected summary: %s", items[0].Summary)
	}
}

func TestRSSSourceFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewRSSSource("down", srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for 503 response")
	}
}

func TestRSSSourceFetchBadXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss><channel><item>"))
	}))
	defer srv.Close()

	if _, err := NewRSSSource("broken", srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for malformed XML")
	}
}
