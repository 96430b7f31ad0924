package feed

import (
	"context"
	"time"
)

// NewsItem is a single normalized story pulled from a source. Items are
// immutable once the aggregator has produced them.
type NewsItem struct {
	Title     string
	Link      string
	Summary   string
	Source    string
	Published time.Time // zero when the source did not report a publish time
}

// Source fetches raw entries from one news provider.
type Source interface {
	Fetch(ctx context.Context) ([]NewsItem, error)
	Name() string
}
