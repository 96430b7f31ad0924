// Package rollup re-aggregates the delivery history over a wide window
// into a small ranked hot-topics set. The weekly variant blends in social
// signals when configured; the monthly variant adds a market-mood read
// and per-topic outlooks. Like the curator, every failure path logs and
// yields an empty result.
package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aqresearch/market-digest/internal/digest"
	"github.com/aqresearch/market-digest/internal/history"
	"github.com/aqresearch/market-digest/internal/llm"
	"github.com/aqresearch/market-digest/internal/signals"
)

const (
	weeklyWindowDays  = 7
	monthlyWindowDays = 30
	weeklyMaxRecords  = 100
	monthlyMaxRecords = 300
	topicCount        = 10
	snippetLen        = 200

	callTimeout = 120 * time.Second
)

const systemPrompt = "You are an expert financial market analyst. Respond with JSON only."

type Analyzer struct {
	store     history.Store
	completer llm.Completer
	model     string
	language  string

	// Optional weekly signal sources; nil disables them.
	Mentions signals.MentionSource
	Interest signals.InterestSource

	now func() time.Time
}

func New(store history.Store, completer llm.Completer, model, language string) *Analyzer {
	return &Analyzer{
		store:     store,
		completer: completer,
		model:     model,
		language:  language,
		now:       time.Now,
	}
}

// Weekly produces the 7-day hot-topics report.
func (a *Analyzer) Weekly(ctx context.Context) *digest.Report {
	records := history.FilterWindow(a.store.Load(ctx), a.now(), weeklyWindowDays)
	if len(records) == 0 {
		log.Println("No delivered news in the last 7 days - skipping weekly rollup")
		return nil
	}
	if len(records) > weeklyMaxRecords {
		records = records[len(records)-weeklyMaxRecords:]
	}
	log.Printf("Analyzing %d delivered stories from the last 7 days", len(records))

	social := a.gatherSignals(ctx)

	raw, err := a.complete(ctx, a.weeklyPrompt(records, social), 0.3, 3000)
	if err != nil {
		log.Printf("WARNING: weekly analysis failed: %v", err)
		return nil
	}

	var result struct {
		WeeklyHotTopics []topicJSON `json:"weekly_hot_topics"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		log.Printf("WARNING: weekly analysis response unparseable: %v", err)
		return nil
	}
	topics := toTopics(result.WeeklyHotTopics)
	if len(topics) == 0 {
		log.Println("Weekly analysis returned no topics")
		return nil
	}
	log.Printf("Weekly rollup: %d hot topics", len(topics))
	return &digest.Report{Topics: topics}
}

// Monthly produces the 30-day report with market mood and outlooks.
func (a *Analyzer) Monthly(ctx context.Context) *digest.Report {
	records := history.FilterWindow(a.store.Load(ctx), a.now(), monthlyWindowDays)
	if len(records) == 0 {
		log.Println("No delivered news in the last 30 days - skipping monthly rollup")
		return nil
	}
	if len(records) < 50 {
		log.Printf("Only %d stories in the monthly window; analysis quality may suffer", len(records))
	}
	if len(records) > monthlyMaxRecords {
		records = records[len(records)-monthlyMaxRecords:]
	}
	log.Printf("Analyzing %d delivered stories from the last 30 days", len(records))

	raw, err := a.complete(ctx, a.monthlyPrompt(records), 0.4, 4000)
	if err != nil {
		log.Printf("WARNING: monthly analysis failed: %v", err)
		return nil
	}

	var result struct {
		MonthlySummary   string      `json:"monthly_summary"`
		MarketMood       string      `json:"market_mood"`
		MonthlyHotTopics []topicJSON `json:"monthly_hot_topics"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		log.Printf("WARNING: monthly analysis response unparseable: %v", err)
		return nil
	}
	topics := toTopics(result.MonthlyHotTopics)
	if len(topics) == 0 {
		log.Println("Monthly analysis returned no topics")
		return nil
	}
	log.Printf("Monthly rollup: %d hot topics, mood %q", len(topics), result.MarketMood)
	return &digest.Report{
		Topics:         topics,
		MonthlySummary: result.MonthlySummary,
		MarketMood:     result.MarketMood,
	}
}

type topicJSON struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Frequency      string   `json:"frequency"`
	HeatScore      int      `json:"heat_score"`
	Impact         string   `json:"impact"`
	Outlook        string   `json:"outlook"`
	RelatedTickers []string `json:"related_tickers"`
}

func toTopics(raw []topicJSON) []digest.Topic {
	if len(raw) > topicCount {
		raw = raw[:topicCount]
	}
	topics := make([]digest.Topic, 0, len(raw))
	for i, t := range raw {
		topics = append(topics, digest.Topic{
			Rank:      i + 1,
			Title:     t.Title,
			Summary:   t.Summary,
			Score:     t.HeatScore,
			Tickers:   t.RelatedTickers,
			Frequency: t.Frequency,
			Impact:    t.Impact,
			Outlook:   t.Outlook,
		})
	}
	return topics
}

func (a *Analyzer) complete(ctx context.Context, prompt string, temperature float64, maxTokens int64) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return a.completer.Complete(callCtx, llm.Request{
		Model:       a.model,
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}

// socialBlock is the rendered optional signals section of the weekly
// prompt; empty when neither source produced anything.
type socialBlock struct {
	text string
}

func (a *Analyzer) gatherSignals(ctx context.Context) socialBlock {
	if a.Mentions == nil {
		return socialBlock{}
	}

	mentions, err := a.Mentions.Mentions(ctx)
	if err != nil {
		log.Printf("WARNING: mention source failed, proceeding without social signals: %v", err)
		return socialBlock{}
	}
	if len(mentions) == 0 {
		return socialBlock{}
	}
	log.Printf("Social signals: %d hot tickers", len(mentions))

	interest := map[string]int{}
	if a.Interest != nil {
		symbols := make([]string, len(mentions))
		for i, m := range mentions {
			symbols[i] = m.Symbol
		}
		interest, err = a.Interest.Interest(ctx, symbols)
		if err != nil {
			log.Printf("WARNING: search interest lookup failed, proceeding without: %v", err)
			interest = map[string]int{}
		}
	}

	var sb strings.Builder
	sb.WriteString("Reddit r/wallstreetbets hot tickers:\n")
	shown := mentions
	if len(shown) > 15 {
		shown = shown[:15]
	}
	for _, m := range shown {
		fmt.Fprintf(&sb, "- %s: %d mentions", m.Symbol, m.Count)
		if score, ok := interest[m.Symbol]; ok && score > 0 {
			fmt.Fprintf(&sb, " | search interest %d/100", score)
		}
		if m.TopPost.Title != "" {
			title := m.TopPost.Title
			if r := []rune(title); len(r) > 80 {
				title = string(r[:80])
			}
			fmt.Fprintf(&sb, "\n  top post: %s", title)
		}
		sb.WriteString("\n")
	}
	return socialBlock{text: sb.String()}
}

func newsBlock(records []history.Record) string {
	var sb strings.Builder
	for i, r := range records {
		fmt.Fprintf(&sb, "[%d] %s\nSummary: %s\nSent: %s\n\n",
			i+1, r.Title, snippet(r.Summary), r.SentAt.Format("2006-01-02"))
	}
	return sb.String()
}

func (a *Analyzer) weeklyPrompt(records []history.Record, social socialBlock) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze the last 7 days of US stock market news and social data and pick the weekly TOP %d hot topics.\n\n", topicCount)
	fmt.Fprintf(&sb, "Delivered news from the last 7 days (%d stories):\n%s\n", len(records), newsBlock(records))

	sb.WriteString("Social media analysis:\n")
	if social.text != "" {
		sb.WriteString(social.text)
	} else {
		sb.WriteString("no social data\n")
	}

	fmt.Fprintf(&sb, `
---

Selection criteria (in priority order):
1. Recurring themes: issues that came back across several days
2. Reddit heat: tickers and issues WSB kept talking about
3. Search trends: symbols with high search interest
4. Market impact: effect on indexes, sectors, macro
5. Investor relevance: earnings, M&A, regulation

Exclude:
- One-off minor stories
- Issues that never recurred
- Reddit memes and jokes

Response format (JSON only):
{
  "weekly_hot_topics": [
    {
      "rank": 1,
      "title": "topic or ticker name in %s",
      "summary": "3-4 sentence recap of the week in %s",
      "frequency": "appeared 3 days" or "Reddit 234 mentions",
      "heat_score": 95,
      "related_tickers": ["NVDA", "AMD"]
    }
  ]
}

Important:
- Write title and summary in %s
- Pick exactly %d topics
- heat_score is a 1-100 composite score
- Sort by score descending

Output JSON only.`, a.language, a.language, a.language, topicCount)

	return sb.String()
}

func (a *Analyzer) monthlyPrompt(records []history.Record) string {
	var sb strings.Builder

	month := a.now().Format("January 2006")
	fmt.Fprintf(&sb, "Analyze the last 30 days (%s) of US stock market news and pick the monthly TOP %d most important issues.\n\n", month, topicCount)
	fmt.Fprintf(&sb, "Delivered news from the last 30 days (%d stories):\n%s\n", len(records), newsBlock(records))

	fmt.Fprintf(&sb, `---

Selection criteria (in priority order):
1. Market impact: effect on the S&P 500, Nasdaq and other major indexes
2. Persistence: issues that ran all month or kept recurring
3. Structural change: fundamental shifts in industry, policy, technology
4. Investor relevance: earnings, M&A, regulation
5. Macro: Fed policy, inflation, employment

Exclude:
- One-off short-lived issues
- Minor small-cap stories
- Low-importance memes and rumors

Angles to cover:
- What was the month's biggest storyline?
- Which stocks and sectors drew the most attention?
- What must an investor know from this month?
- Which issues are likely to carry into next month?

Response format (JSON only):
{
  "monthly_summary": "one-sentence summary of the month in %s",
  "market_mood": "one of: optimistic, cautious, pessimistic",
  "monthly_hot_topics": [
    {
      "rank": 1,
      "title": "issue title in %s",
      "summary": "4-5 sentence analysis in %s: why it mattered, what happened, how it moved the market",
      "impact": "high or medium",
      "heat_score": 95,
      "related_tickers": ["NVDA", "AMD"],
      "outlook": "one-sentence outlook for next month in %s"
    }
  ]
}

Important:
- Write all text in %s
- Pick exactly %d topics
- heat_score is a 1-100 composite score
- Sort by score descending

Output JSON only.`, a.language, a.language, a.language, a.language, a.language, topicCount)

	return sb.String()
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}
