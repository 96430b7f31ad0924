// Package runner wires one end-to-end digest cycle: collect, dedupe,
// curate, compose, publish, record. Stage failures never abort the
// process; an empty result simply ends the cycle early.
package runner

import (
	"context"
	"log"
	"time"

	"github.com/aqresearch/market-digest/internal/digest"
	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/history"
	"github.com/aqresearch/market-digest/internal/publisher"
)

type Collector interface {
	Collect(ctx context.Context) []feed.NewsItem
}

type Deduper interface {
	Filter(ctx context.Context, candidates []feed.NewsItem, past []history.Record) []feed.NewsItem
}

type Selector interface {
	Select(ctx context.Context, items []feed.NewsItem, topN int) []digest.Topic
}

// Reporter produces the periodic rollup reports. A nil report means
// there was nothing to publish this period.
type Reporter interface {
	Weekly(ctx context.Context) *digest.Report
	Monthly(ctx context.Context) *digest.Report
}

type Runner struct {
	Collector Collector
	Deduper   Deduper
	Selector  Selector
	Reporter  Reporter
	Store     history.Store
	Composer  *digest.Composer
	Publisher publisher.Publisher

	TopN        int
	HeaderImage string

	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunDaily executes one digest cycle. The selected topics are appended
// to history only after at least one chat received them, so an outage
// retries the same stories next cycle instead of losing them.
func (r *Runner) RunDaily(ctx context.Context) {
	log.Println("=== Daily digest cycle started ===")

	items := r.Collector.Collect(ctx)
	if len(items) == 0 {
		log.Println("No news collected - nothing to send")
		return
	}

	past := r.Store.Load(ctx)
	items = r.Deduper.Filter(ctx, items, past)
	if len(items) == 0 {
		log.Println("All collected items were duplicates - nothing to send")
		return
	}

	topics := r.Selector.Select(ctx, items, r.TopN)
	if len(topics) == 0 {
		log.Println("No topics selected - nothing to send")
		return
	}

	chunks := r.Composer.Daily(topics, r.now())
	if err := r.Publisher.Publish(ctx, &publisher.Message{Chunks: chunks, HeaderImage: r.HeaderImage}); err != nil {
		log.Printf("WARNING: digest delivery failed, not recording to history: %v", err)
		return
	}

	records := make([]history.Record, 0, len(topics))
	for _, t := range topics {
		records = append(records, history.Record{Title: t.Title, Link: t.Link, Summary: t.Summary})
	}
	if err := r.Store.Append(ctx, records, r.now()); err != nil {
		log.Printf("WARNING: failed to record delivered stories: %v", err)
	}

	log.Println("=== Daily digest cycle finished ===")
}

// RunWeekly publishes the 7-day hot-topics rollup.
func (r *Runner) RunWeekly(ctx context.Context) {
	if r.Reporter == nil {
		return
	}
	log.Println("=== Weekly rollup started ===")

	rep := r.Reporter.Weekly(ctx)
	if rep == nil {
		log.Println("No weekly report this time")
		return
	}

	chunks := r.Composer.Weekly(rep.Topics, r.now())
	if err := r.Publisher.Publish(ctx, &publisher.Message{Chunks: chunks}); err != nil {
		log.Printf("WARNING: weekly rollup delivery failed: %v", err)
		return
	}
	log.Println("=== Weekly rollup finished ===")
}

// RunMonthly publishes the 30-day rollup.
func (r *Runner) RunMonthly(ctx context.Context) {
	if r.Reporter == nil {
		return
	}
	log.Println("=== Monthly rollup started ===")

	rep := r.Reporter.Monthly(ctx)
	if rep == nil {
		log.Println("No monthly report this time")
		return
	}

	chunks := r.Composer.Monthly(rep, r.now())
	if err := r.Publisher.Publish(ctx, &publisher.Message{Chunks: chunks}); err != nil {
		log.Printf("WARNING: monthly rollup delivery failed: %v", err)
		return
	}
	log.Println("=== Monthly rollup finished ===")
}
