package digest

import (
	"fmt"
	"strings"
	"time"
)

// escaper covers every character the Telegram MarkdownV2 parse mode
// reserves.
var escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
	">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
	".", "\\.", "!", "\\!",
)

// EscapeMarkdown escapes transport-reserved punctuation in free text.
func EscapeMarkdown(s string) string {
	return escaper.Replace(s)
}

var divider = strings.Repeat("━", 20)

// Composer renders topic lists into transport-safe chunks. Every chunk
// stays within the configured character limit, and when a message needs
// several chunks the header and footer are repeated on each so every chunk
// renders on its own.
type Composer struct {
	limit int
}

func NewComposer(limit int) *Composer {
	return &Composer{limit: limit}
}

// Daily renders the twice-daily brief. Before noon it is the morning
// edition, after it the evening one.
func (c *Composer) Daily(topics []Topic, now time.Time) []string {
	var title, sub string
	if now.Hour() < 12 {
		title = "☀️ *US Stock Morning Brief*"
		sub = "_Top stories after the US close_"
	} else {
		title = "🌙 *US Stock Evening Brief*"
		sub = "_Top stories around the US open_"
	}
	header := fmt.Sprintf("%s\n%s\n\n📅 %s\n\n%s",
		title, sub, EscapeMarkdown(now.Format("2006-01-02 15:04")), divider)

	blocks := make([]string, 0, len(topics))
	for _, t := range topics {
		blocks = append(blocks, fmt.Sprintf("%d\\. *%s*\n>%s [link](%s)",
			t.Rank, EscapeMarkdown(t.Title), EscapeMarkdown(t.Summary), t.Link))
	}

	footer := fmt.Sprintf("%s\n%d top stories in this brief", divider, len(topics))
	return c.chunk(header, blocks, footer)
}

// Weekly renders the Sunday hot-topics rollup.
func (c *Composer) Weekly(topics []Topic, now time.Time) []string {
	header := fmt.Sprintf("🔥 *Weekly Hot Topics TOP %d*\n_The week's most talked\\-about issues_\n\n📅 %s\n\n%s",
		len(topics), EscapeMarkdown(now.Format("2006-01-02")), divider)

	blocks := make([]string, 0, len(topics))
	for _, t := range topics {
		b := fmt.Sprintf("%d\\. *%s*\n>%s",
			t.Rank, EscapeMarkdown(t.Title), EscapeMarkdown(t.Summary))
		meta := metaLine(t.Frequency, "", t.Tickers)
		if meta != "" {
			b += "\n_" + meta + "_"
		}
		blocks = append(blocks, b)
	}

	footer := divider + "\n📌 Reddit WSB \\+ Google Trends \\+ model analysis\n🔄 Based on the last 7 days of delivered news"
	return c.chunk(header, blocks, footer)
}

// Monthly renders the first-of-month rollup, including the one-line month
// summary, the market mood, and per-topic outlooks.
func (c *Composer) Monthly(rep *Report, now time.Time) []string {
	month := now.Format("January 2006")
	header := fmt.Sprintf("📅 *%s Monthly Hot Topics*\n_The month's defining stories_", EscapeMarkdown(month))
	if rep.MonthlySummary != "" {
		header += "\n\n📝 " + EscapeMarkdown(rep.MonthlySummary)
	}
	if rep.MarketMood != "" {
		header += "\n📊 Market mood: " + EscapeMarkdown(rep.MarketMood)
	}
	header += "\n\n" + divider

	blocks := make([]string, 0, len(rep.Topics))
	for _, t := range rep.Topics {
		b := fmt.Sprintf("%d\\. *%s*\n>%s",
			t.Rank, EscapeMarkdown(t.Title), EscapeMarkdown(t.Summary))
		meta := metaLine("", t.Impact, t.Tickers)
		if meta != "" {
			b += "\n_" + meta + "_"
		}
		if t.Outlook != "" {
			b += "\n💡 _" + EscapeMarkdown(t.Outlook) + "_"
		}
		blocks = append(blocks, b)
	}

	footer := divider + "\n📌 Monthly deep analysis\n🔄 Based on the last 30 days of delivered news"
	return c.chunk(header, blocks, footer)
}

// metaLine builds the optional metadata line under a topic block.
func metaLine(frequency, impact string, tickers []string) string {
	var parts []string
	if frequency != "" {
		parts = append(parts, "📊 "+EscapeMarkdown(frequency))
	}
	if impact != "" {
		marker := "🟡"
		if strings.EqualFold(impact, "high") {
			marker = "🔴"
		}
		parts = append(parts, marker+" "+EscapeMarkdown(strings.ToUpper(impact)))
	}
	if len(tickers) > 0 {
		shown := tickers
		if len(shown) > 3 {
			shown = shown[:3]
		}
		parts = append(parts, "Tickers: "+EscapeMarkdown(strings.Join(shown, ", ")))
	}
	return strings.Join(parts, " \\| ")
}

// chunk splits the rendered message on block boundaries so that every
// chunk fits the limit and no topic block is cut mid-way. Header and
// footer are re-emitted on every chunk.
func (c *Composer) chunk(header string, blocks []string, footer string) []string {
	assemble := func(bs []string) string {
		return header + "\n\n" + strings.Join(bs, "\n\n") + "\n\n" + footer
	}

	whole := assemble(blocks)
	if len(whole) <= c.limit || len(blocks) <= 1 {
		return []string{whole}
	}

	base := len(header) + len(footer) + 4

	var chunks []string
	var cur []string
	joined := 0
	for _, b := range blocks {
		added := len(b)
		if len(cur) > 0 {
			added += 2
		}
		if len(cur) > 0 && base+joined+added > c.limit {
			chunks = append(chunks, assemble(cur))
			cur = nil
			joined = 0
			added = len(b)
		}
		cur = append(cur, b)
		joined += added
	}
	if len(cur) > 0 {
		chunks = append(chunks, assemble(cur))
	}
	return chunks
}
