package feed

import (
	"context"
	"log"
	"strings"
	"time"
)

const (
	// perSourceLimit bounds how many entries one source may contribute.
	perSourceLimit = 30
	// summaryLimit bounds the stored summary length in characters.
	summaryLimit = 500
)

// Aggregator pulls items from every configured source, applies the recency
// window, and removes exact duplicates by title.
type Aggregator struct {
	sources []Source
	window  time.Duration
	now     func() time.Time
}

func NewAggregator(sources []Source, window time.Duration) *Aggregator {
	return &Aggregator{
		sources: sources,
		window:  window,
		now:     time.Now,
	}
}

// Collect runs every source in order. A source failure is logged and
// skipped; it never aborts the run.
func (a *Aggregator) Collect(ctx context.Context) []NewsItem {
	cutoff := a.now().Add(-a.window)
	log.Printf("Collecting news from %d sources (window %s, cutoff %s)",
		len(a.sources), a.window, cutoff.Format("2006-01-02 15:04"))

	var all []NewsItem
	for _, src := range a.sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("WARNING: source %s failed: %v", src.Name(), err)
			continue
		}
		if len(items) > perSourceLimit {
			items = items[:perSourceLimit]
		}

		kept := 0
		for _, it := range items {
			if !it.Published.IsZero() && it.Published.Before(cutoff) {
				continue
			}
			it.Title = strings.TrimSpace(it.Title)
			it.Link = strings.TrimSpace(it.Link)
			if it.Title == "" || it.Link == "" {
				continue
			}
			it.Summary = truncateRunes(it.Summary, summaryLimit)
			all = append(all, it)
			kept++
		}
		log.Printf("Source %s: %d items", src.Name(), kept)
	}

	unique := dedupeByTitle(all)
	if removed := len(all) - len(unique); removed > 0 {
		log.Printf("Removed %d exact duplicates by title", removed)
	}
	log.Printf("Collected %d unique items", len(unique))
	return unique
}

// dedupeByTitle keeps the first occurrence of each case-insensitive title.
func dedupeByTitle(items []NewsItem) []NewsItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]NewsItem, 0, len(items))
	for _, it := range items {
		key := strings.ToLower(it.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, it)
	}
	return unique
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
