// Package dedupe removes candidate stories whose topic was already
// delivered recently. The check is best effort: any failure leaves the
// candidate list untouched.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/history"
	"github.com/aqresearch/market-digest/internal/llm"
)

const (
	maxCandidates = 50
	maxHistory    = 30
	snippetLen    = 200

	callTimeout = 30 * time.Second
)

const systemPrompt = "You are a news duplicate checker. Respond with JSON only."

type Deduplicator struct {
	completer llm.Completer
	model     string
}

func New(completer llm.Completer, model string) *Deduplicator {
	return &Deduplicator{completer: completer, model: model}
}

// Filter returns candidates with semantic duplicates of recent history
// removed. Candidates beyond the first 50 always pass through untouched.
func (d *Deduplicator) Filter(ctx context.Context, candidates []feed.NewsItem, past []history.Record) []feed.NewsItem {
	if len(candidates) == 0 {
		return candidates
	}
	if len(past) == 0 {
		log.Println("No delivery history - skipping duplicate check")
		return candidates
	}

	if len(past) > maxHistory {
		past = past[len(past)-maxHistory:]
	}
	head := candidates
	var tail []feed.NewsItem
	if len(candidates) > maxCandidates {
		head = candidates[:maxCandidates]
		tail = candidates[maxCandidates:]
	}

	log.Printf("Checking %d new items against %d recent records for duplicate topics", len(head), len(past))

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := d.completer.Complete(callCtx, llm.Request{
		Model:       d.model,
		System:      systemPrompt,
		Prompt:      buildPrompt(head, past),
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if err != nil {
		log.Printf("WARNING: duplicate check failed, keeping all items: %v", err)
		return candidates
	}

	var result struct {
		DuplicateNewsNumbers []int `json:"duplicate_news_numbers"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		log.Printf("WARNING: duplicate check response unparseable, keeping all items: %v", err)
		return candidates
	}

	if len(result.DuplicateNewsNumbers) == 0 {
		log.Println("No duplicate topics found")
		return candidates
	}

	drop := make(map[int]struct{}, len(result.DuplicateNewsNumbers))
	for _, n := range result.DuplicateNewsNumbers {
		drop[n] = struct{}{}
	}

	filtered := make([]feed.NewsItem, 0, len(candidates))
	for i, it := range head {
		if _, dup := drop[i+1]; dup {
			continue
		}
		filtered = append(filtered, it)
	}
	filtered = append(filtered, tail...)

	log.Printf("Removed %d duplicate topics, %d items remain", len(head)-len(filtered)+len(tail), len(filtered))
	return filtered
}

func buildPrompt(candidates []feed.NewsItem, past []history.Record) string {
	var sb strings.Builder

	sb.WriteString("The following stories were already delivered within the last few days:\n\n")
	for i, r := range past {
		fmt.Fprintf(&sb, "[Past %d] Title: %s\nSummary: %s\n\n", i+1, r.Title, snippet(r.Summary))
	}

	sb.WriteString("---\n\nThe following are new stories about to be delivered:\n\n")
	for i, it := range candidates {
		fmt.Fprintf(&sb, "[New %d] Title: %s\nSummary: %s\n\n", i+1, it.Title, snippet(it.Summary))
	}

	sb.WriteString(`---

Task: find new stories whose topic or content duplicates a past story.

Criteria:
1. Same event or issue (e.g. stories about the same CEO interview)
2. Same news about the same company or person (same earnings, same announcement)
3. Same move in the same stock or index
4. Only flag stories whose core content overlaps - not mere keyword overlap

Important:
- The same company or person with a DIFFERENT event is not a duplicate
- Price stories are duplicates only for the same date and the same price range
- Follow-ups with new developments are not duplicates

Response format (JSON only):
{
  "duplicate_news_numbers": [2, 5, 7]
}

Use the [New N] numbers. Return an empty array when nothing duplicates.
Output JSON only.`)

	return sb.String()
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}
