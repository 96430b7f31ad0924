package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// The explore endpoint accepts at most five keywords per request.
	trendsBatchSize = 5
	// Fixed pause between batches to stay under the provider's rate limit.
	trendsBatchDelay = 2 * time.Second
)

// TrendsClient reads search interest from the Google Trends widget API.
// The flow is explore (returns a per-widget token) followed by the
// interest-over-time widget data, averaged per keyword.
type TrendsClient struct {
	client  *http.Client
	baseURL string
	delay   time.Duration
}

func NewTrendsClient() *TrendsClient {
	return &TrendsClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://trends.google.com",
		delay:   trendsBatchDelay,
	}
}

// Interest returns average search interest (0-100) per symbol over the
// last 7 days. Symbols are queried in batches of at most five; a failed
// batch is logged and skipped.
func (c *TrendsClient) Interest(ctx context.Context, symbols []string) (map[string]int, error) {
	scores := make(map[string]int)
	for i := 0; i < len(symbols); i += trendsBatchSize {
		if i > 0 {
			select {
			case <-ctx.Done():
				return scores, ctx.Err()
			case <-time.After(c.delay):
			}
		}

		end := i + trendsBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[i:end]

		if err := c.fetchBatch(ctx, batch, scores); err != nil {
			log.Printf("WARNING: trends lookup for %v failed: %v", batch, err)
		}
	}
	return scores, nil
}

type exploreWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

func (c *TrendsClient) fetchBatch(ctx context.Context, batch []string, scores map[string]int) error {
	type comparisonItem struct {
		Keyword string `json:"keyword"`
		Geo     string `json:"geo"`
		Time    string `json:"time"`
	}
	items := make([]comparisonItem, len(batch))
	for i, sym := range batch {
		items[i] = comparisonItem{Keyword: sym, Geo: "", Time: "now 7-d"}
	}
	exploreReq, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return fmt.Errorf("trends: failed to marshal explore request: %w", err)
	}

	q := url.Values{"hl": {"en-US"}, "tz": {"360"}, "req": {string(exploreReq)}}
	body, err := c.get(ctx, c.baseURL+"/trends/api/explore?"+q.Encode())
	if err != nil {
		return err
	}

	var explore struct {
		Widgets []exploreWidget `json:"widgets"`
	}
	if err := json.Unmarshal(stripAntiJSONPrefix(body), &explore); err != nil {
		return fmt.Errorf("trends: failed to parse explore response: %w", err)
	}

	var series *exploreWidget
	for i := range explore.Widgets {
		if explore.Widgets[i].ID == "TIMESERIES" {
			series = &explore.Widgets[i]
			break
		}
	}
	if series == nil {
		return fmt.Errorf("trends: explore response has no timeseries widget")
	}

	q = url.Values{"hl": {"en-US"}, "tz": {"360"}, "req": {string(series.Request)}, "token": {series.Token}}
	body, err = c.get(ctx, c.baseURL+"/trends/api/widgetdata/multiline?"+q.Encode())
	if err != nil {
		return err
	}

	var data struct {
		Default struct {
			TimelineData []struct {
				Value []int `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := json.Unmarshal(stripAntiJSONPrefix(body), &data); err != nil {
		return fmt.Errorf("trends: failed to parse widget data: %w", err)
	}

	points := data.Default.TimelineData
	if len(points) == 0 {
		return nil
	}
	for i, sym := range batch {
		sum, n := 0, 0
		for _, p := range points {
			if i < len(p.Value) {
				sum += p.Value[i]
				n++
			}
		}
		if n > 0 {
			scores[sym] = sum / n
		}
	}
	return nil
}

func (c *TrendsClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("trends: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "market-digest/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trends: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// stripAntiJSONPrefix removes the ")]}'" guard Google prepends to its
// JSON endpoints.
func stripAntiJSONPrefix(body []byte) []byte {
	s := string(body)
	if idx := strings.IndexAny(s, "{["); idx > 0 {
		s = s[idx:]
	}
	return []byte(s)
}
