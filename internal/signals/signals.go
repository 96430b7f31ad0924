// Package signals gathers the optional social inputs for the weekly
// rollup: ticker mention frequency from Reddit and search interest from
// Google Trends. Both sources are best effort and degrade to an empty
// result on any failure.
package signals

import "context"

// Post is the representative high-engagement post for a ticker.
type Post struct {
	Title string
	Score int
	URL   string
}

// TickerMentions is one symbol's mention count plus its top post.
type TickerMentions struct {
	Symbol  string
	Count   int
	TopPost Post
}

// MentionSource reports which tickers a community is talking about.
type MentionSource interface {
	Mentions(ctx context.Context) ([]TickerMentions, error)
}

// InterestSource reports search interest per symbol on a 0-100 scale.
type InterestSource interface {
	Interest(ctx context.Context, symbols []string) (map[string]int, error)
}
