// Package curator selects and summarizes the top stories for one digest
// cycle via the external ranking capability. A failed cycle yields an
// empty selection, never an error: the scheduler simply runs again later.
package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/aqresearch/market-digest/internal/digest"
	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/llm"
)

const (
	maxCandidates = 100
	snippetLen    = 300

	callTimeout = 60 * time.Second
)

const systemPrompt = "You are a financial news analyst. Respond with JSON only."

type Curator struct {
	completer llm.Completer
	model     string
	language  string
}

func New(completer llm.Completer, model, language string) *Curator {
	return &Curator{completer: completer, model: model, language: language}
}

// Select returns up to topN topics ranked by importance, descending.
// Ranks are reassigned densely after sorting. Any transport or parse
// failure logs and returns an empty list.
func (c *Curator) Select(ctx context.Context, items []feed.NewsItem, topN int) []digest.Topic {
	if len(items) == 0 {
		return nil
	}
	if len(items) > maxCandidates {
		items = items[:maxCandidates]
	}

	log.Printf("Selecting top %d of %d candidate stories", topN, len(items))

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := c.completer.Complete(callCtx, llm.Request{
		Model:       c.model,
		System:      systemPrompt,
		Prompt:      c.buildPrompt(items, topN),
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		log.Printf("WARNING: story selection failed, skipping this cycle: %v", err)
		return nil
	}

	var result struct {
		SelectedNews []struct {
			NewsNumber      int    `json:"news_number"`
			Title           string `json:"title"`
			Summary         string `json:"summary"`
			ImportanceScore int    `json:"importance_score"`
		} `json:"selected_news"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		log.Printf("WARNING: selection response unparseable, skipping this cycle: %v", err)
		return nil
	}

	var topics []digest.Topic
	for _, sel := range result.SelectedNews {
		if len(topics) >= topN {
			break
		}
		idx := sel.NewsNumber - 1
		if idx < 0 || idx >= len(items) {
			// Reference failure: drop this one selection, keep the batch.
			continue
		}
		topics = append(topics, digest.Topic{
			Title:   sel.Title,
			Summary: sel.Summary,
			Link:    items[idx].Link,
			Source:  items[idx].Source,
			Score:   sel.ImportanceScore,
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Score > topics[j].Score
	})
	for i := range topics {
		topics[i].Rank = i + 1
	}

	log.Printf("Selected %d stories", len(topics))
	return topics
}

func (c *Curator) buildPrompt(items []feed.NewsItem, topN int) string {
	var sb strings.Builder

	sb.WriteString("You are a news curator for stock market investors.\n\n")
	fmt.Fprintf(&sb, "From the stories below, select the %d most important for investors and summarize each in %s in 2-3 sentences.\n\n", topN, c.language)

	sb.WriteString(`Selection criteria (in priority order):
1. Earnings, M&A and product launches at major companies
2. Fed rates, economic indicators, macro issues
3. Regulatory changes and policy announcements
4. Sharp moves in major indexes and market trends
5. Important sector themes (tech, financials, energy, ...)

Exclude:
- Pure opinion or analysis pieces
- Small-cap company news
- Low-importance rumor stories

`)

	sb.WriteString("Stories:\n\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "[News %d]\nTitle: %s\nSource: %s\nLink: %s\nContent: %s\n\n",
			i+1, it.Title, it.Source, it.Link, snippet(it.Summary))
	}

	fmt.Fprintf(&sb, `Response format (JSON only):
{
  "selected_news": [
    {
      "news_number": 1,
      "title": "title translated into %s",
      "summary": "2-3 sentence summary in %s",
      "importance_score": 95
    }
  ]
}

Important: always translate the title into %s.
Sort by importance and output JSON only.`, c.language, c.language, c.language)

	return sb.String()
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}
