package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aqresearch/market-digest/internal/digest"
	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/history"
	"github.com/aqresearch/market-digest/internal/publisher"
)

var testNow = time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

type stubCollector struct {
	items []feed.NewsItem
}

func (s *stubCollector) Collect(context.Context) []feed.NewsItem { return s.items }

type stubDeduper struct {
	gotPast []history.Record
}

func (s *stubDeduper) Filter(_ context.Context, candidates []feed.NewsItem, past []history.Record) []feed.NewsItem {
	s.gotPast = past
	return candidates
}

type stubSelector struct {
	topics []digest.Topic
}

func (s *stubSelector) Select(context.Context, []feed.NewsItem, int) []digest.Topic {
	return s.topics
}

type stubReporter struct {
	weekly  *digest.Report
	monthly *digest.Report
}

func (s *stubReporter) Weekly(context.Context) *digest.Report  { return s.weekly }
func (s *stubReporter) Monthly(context.Context) *digest.Report { return s.monthly }

type stubStore struct {
	records  []history.Record
	appended []history.Record
}

func (s *stubStore) Load(context.Context) []history.Record { return s.records }
func (s *stubStore) Append(_ context.Context, records []history.Record, _ time.Time) error {
	s.appended = append(s.appended, records...)
	return nil
}

type stubPublisher struct {
	err      error
	messages []*publisher.Message
}

func (s *stubPublisher) Publish(_ context.Context, msg *publisher.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func newTestRunner() (*Runner, *stubStore, *stubPublisher) {
	store := &stubStore{records: []history.Record{{Title: "old", SentAt: testNow.Add(-24 * time.Hour)}}}
	pub := &stubPublisher{}
	r := &Runner{
		Collector: &stubCollector{items: []feed.NewsItem{
			{Title: "Fed decision", Link: "https://x/1", Source: "cnbc"},
		}},
		Deduper: &stubDeduper{},
		Selector: &stubSelector{topics: []digest.Topic{
			{Rank: 1, Title: "Fed decision", Summary: "Rates held.", Link: "https://x/1"},
		}},
		Reporter:  &stubReporter{},
		Store:     store,
		Composer:  digest.NewComposer(4000),
		Publisher: pub,
		TopN:      10,
		Now:       func() time.Time { return testNow },
	}
	return r, store, pub
}

func TestRunDailyHappyPath(t *testing.T) {
	r, store, pub := newTestRunner()

	r.RunDaily(context.Background())

	if len(pub.messages) != 1 {
		t.Fatalf("Expected 1 published message, got %d", len(pub.messages))
	}
	if len(store.appended) != 1 {
		t.Fatalf("Expected 1 history record, got %d", len(store.appended))
	}
	rec := store.appended[0]
	if rec.Title != "Fed decision" || rec.Link != "https://x/1" || rec.Summary != "Rates held." {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestRunDailyPassesHistoryToDeduper(t *testing.T) {
	r, _, _ := newTestRunner()
	dd := &stubDeduper{}
	r.Deduper = dd

	r.RunDaily(context.Background())

	if len(dd.gotPast) != 1 || dd.gotPast[0].Title != "old" {
		t.Errorf("Expected loaded history passed to deduper, got %+v", dd.gotPast)
	}
}

func TestRunDailyPublishFailureSkipsHistory(t *testing.T) {
	r, store, pub := newTestRunner()
	pub.err = errors.New("all chats failed")

	r.RunDaily(context.Background())

	if len(store.appended) != 0 {
		t.Fatalf("Expected no history append after delivery failure, got %d", len(store.appended))
	}
}

func TestRunDailyNoNewsPublishesNothing(t *testing.T) {
	r, store, pub := newTestRunner()
	r.Collector = &stubCollector{}

	r.RunDaily(context.Background())

	if len(pub.messages) != 0 || len(store.appended) != 0 {
		t.Fatal("Expected no activity with no news")
	}
}

func TestRunDailyNoSelectionPublishesNothing(t *testing.T) {
	r, store, pub := newTestRunner()
	r.Selector = &stubSelector{}

	r.RunDaily(context.Background())

	if len(pub.messages) != 0 || len(store.appended) != 0 {
		t.Fatal("Expected no activity with an empty selection")
	}
}

func TestRunDailyAttachesHeaderImage(t *testing.T) {
	r, _, pub := newTestRunner()
	r.HeaderImage = "file123"

	r.RunDaily(context.Background())

	if len(pub.messages) != 1 || pub.messages[0].HeaderImage != "file123" {
		t.Fatalf("Expected header image on the message, got %+v", pub.messages)
	}
}

func TestRunWeeklyPublishesReport(t *testing.T) {
	r, store, pub := newTestRunner()
	r.Reporter = &stubReporter{weekly: &digest.Report{Topics: []digest.Topic{
		{Rank: 1, Title: "AI capex", Summary: "Spending up."},
	}}}

	r.RunWeekly(context.Background())

	if len(pub.messages) != 1 {
		t.Fatalf("Expected 1 published message, got %d", len(pub.messages))
	}
	if len(store.appended) != 0 {
		t.Error("Rollups must not touch history")
	}
}

func TestRunWeeklyNilReport(t *testing.T) {
	r, _, pub := newTestRunner()

	r.RunWeekly(context.Background())

	if len(pub.messages) != 0 {
		t.Fatal("Expected nothing published for a nil report")
	}
}

func TestRunMonthlyPublishesReport(t *testing.T) {
	r, _, pub := newTestRunner()
	r.Reporter = &stubReporter{monthly: &digest.Report{
		MonthlySummary: "Quiet month.",
		MarketMood:     "optimistic",
		Topics:         []digest.Topic{{Rank: 1, Title: "Soft landing", Summary: "It held."}},
	}}

	r.RunMonthly(context.Background())

	if len(pub.messages) != 1 {
		t.Fatalf("Expected 1 published message, got %d", len(pub.messages))
	}
}

func TestRunRollupsWithoutReporter(t *testing.T) {
	r, _, pub := newTestRunner()
	r.Reporter = nil

	r.RunWeekly(context.Background())
	r.RunMonthly(context.Background())

	if len(pub.messages) != 0 {
		t.Fatal("Expected nothing published without a reporter")
	}
}
