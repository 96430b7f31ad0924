package curator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/llm"
)

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (string, error) {
	return s.response, s.err
}

func candidates(n int) []feed.NewsItem {
	items := make([]feed.NewsItem, n)
	for i := range items {
		items[i] = feed.NewsItem{
			Title:  fmt.Sprintf("story %d", i+1),
			Link:   fmt.Sprintf("https://x/%d", i+1),
			Source: fmt.Sprintf("src%d", i+1),
		}
	}
	return items
}

func TestSelectMapsIndexToCandidate(t *testing.T) {
	stub := &stubCompleter{response: `{"selected_news":[
		{"news_number":3,"title":"Chips story","summary":"sum","importance_score":90}
	]}`}
	c := New(stub, "test-model", "English")

	topics := c.Select(context.Background(), candidates(5), 10)
	if len(topics) != 1 {
		t.Fatalf("Expected 1 topic, got %d", len(topics))
	}
	if topics[0].Link != "https://x/3" || topics[0].Source != "src3" {
		t.Errorf("Expected link and source of candidate 3, got %+v", topics[0])
	}
	if topics[0].Title != "Chips story" {
		t.Errorf("Expected the rewritten title, got %s", topics[0].Title)
	}
	if topics[0].Rank != 1 {
		t.Errorf("Expected rank 1, got %d", topics[0].Rank)
	}
}

func TestSelectDropsOutOfRangeIndex(t *testing.T) {
	stub := &stubCompleter{response: `{"selected_news":[
		{"news_number":9,"title":"ghost","summary":"s","importance_score":99},
		{"news_number":0,"title":"ghost2","summary":"s","importance_score":98},
		{"news_number":2,"title":"real","summary":"s","importance_score":80}
	]}`}
	c := New(stub, "test-model", "English")

	topics := c.Select(context.Background(), candidates(5), 10)
	if len(topics) != 1 {
		t.Fatalf("Expected 1 topic, got %d", len(topics))
	}
	if topics[0].Title != "real" {
		t.Errorf("Expected the in-range selection, got %s", topics[0].Title)
	}
}

func TestSelectSortsByScoreAndReranks(t *testing.T) {
	stub := &stubCompleter{response: `{"selected_news":[
		{"news_number":1,"title":"low","summary":"s","importance_score":60},
		{"news_number":2,"title":"high","summary":"s","importance_score":95},
		{"news_number":3,"title":"mid","summary":"s","importance_score":80}
	]}`}
	c := New(stub, "test-model", "English")

	topics := c.Select(context.Background(), candidates(5), 10)
	if len(topics) != 3 {
		t.Fatalf("Expected 3 topics, got %d", len(topics))
	}
	wantOrder := []string{"high", "mid", "low"}
	for i, want := range wantOrder {
		if topics[i].Title != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, topics[i].Title)
		}
		if topics[i].Rank != i+1 {
			t.Errorf("Position %d: expected rank %d, got %d", i, i+1, topics[i].Rank)
		}
	}
}

func TestSelectRespectsTopN(t *testing.T) {
	stub := &stubCompleter{response: `{"selected_news":[
		{"news_number":1,"title":"a","summary":"s","importance_score":90},
		{"news_number":2,"title":"b","summary":"s","importance_score":80},
		{"news_number":3,"title":"c","summary":"s","importance_score":70}
	]}`}
	c := New(stub, "test-model", "English")

	topics := c.Select(context.Background(), candidates(5), 2)
	if len(topics) != 2 {
		t.Fatalf("Expected 2 topics, got %d", len(topics))
	}
}

func TestSelectErrorReturnsEmpty(t *testing.T) {
	stub := &stubCompleter{err: errors.New("timeout")}
	c := New(stub, "test-model", "English")

	if topics := c.Select(context.Background(), candidates(5), 10); len(topics) != 0 {
		t.Fatalf("Expected empty result on error, got %d", len(topics))
	}
}

func TestSelectUnparseableResponseReturnsEmpty(t *testing.T) {
	stub := &stubCompleter{response: "here are my picks: 1, 2, 3"}
	c := New(stub, "test-model", "English")

	if topics := c.Select(context.Background(), candidates(5), 10); len(topics) != 0 {
		t.Fatalf("Expected empty result on parse failure, got %d", len(topics))
	}
}

func TestSelectEmptyInput(t *testing.T) {
	c := New(&stubCompleter{}, "test-model", "English")
	if topics := c.Select(context.Background(), nil, 10); topics != nil {
		t.Fatalf("Expected nil for empty input, got %v", topics)
	}
}
