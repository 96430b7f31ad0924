package digest

// Topic is one ranked story or theme selected for delivery. Ranks are
// dense, starting at 1. Score is the 0-100 importance/heat score.
// Frequency, Impact and Outlook are only set by the rollup analyzers.
type Topic struct {
	Rank      int
	Title     string
	Summary   string
	Link      string
	Source    string
	Score     int
	Tickers   []string
	Frequency string
	Impact    string
	Outlook   string
}

// Report is a rollup result. MonthlySummary and MarketMood are only set
// by the monthly analyzer.
type Report struct {
	Topics         []Topic
	MonthlySummary string
	MarketMood     string
}
