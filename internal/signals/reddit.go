package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	redditUserAgent = "market-digest/1.0"
	postLimit       = 100
	topTickers      = 20
)

// tickerPattern matches $TSLA-style and bare uppercase 2-5 letter symbols.
var tickerPattern = regexp.MustCompile(`\$?([A-Z]{2,5})\b`)

// commonWords are uppercase tokens that look like tickers but are not.
var commonWords = map[string]struct{}{
	"TO": {}, "FOR": {}, "THE": {}, "AND": {}, "OR": {}, "BUT": {}, "NOT": {},
	"ARE": {}, "WAS": {}, "HAS": {}, "HAD": {}, "CAN": {}, "ALL": {}, "NEW": {},
	"NOW": {}, "OUT": {}, "ANY": {}, "WHO": {}, "HOW": {}, "WHY": {}, "GET": {},
	"GOT": {}, "SEE": {}, "SAW": {}, "WAY": {}, "OUR": {}, "YOU": {}, "YOUR": {},
	"WILL": {}, "WOULD": {}, "COULD": {}, "SHOULD": {}, "MAY": {}, "MIGHT": {},
	"BEEN": {}, "BEING": {}, "HAVE": {}, "HIS": {}, "HER": {}, "ITS": {},
	"THEIR": {}, "THERE": {}, "WHAT": {}, "WHEN": {}, "WHERE": {}, "WHICH": {},
	"THIS": {}, "THAT": {}, "THESE": {}, "THOSE": {}, "FROM": {}, "WITH": {},
	"INTO": {}, "OVER": {}, "AFTER": {}, "BEFORE": {}, "ABOUT": {}, "AGAINST": {},
	"BETWEEN": {}, "DURING": {}, "WITHOUT": {}, "THROUGH": {}, "THAN": {},
	"USA": {}, "CEO": {}, "IPO": {}, "ETF": {}, "WSB": {}, "YOLO": {},
	"DD": {}, "TA": {}, "IMO": {},
}

// RedditClient counts ticker mentions in r/wallstreetbets hot posts using
// an application-only OAuth token.
type RedditClient struct {
	clientID     string
	clientSecret string
	client       *http.Client

	authURL string
	apiURL  string
}

func NewRedditClient(clientID, clientSecret string) *RedditClient {
	return &RedditClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 30 * time.Second},
		authURL:      "https://www.reddit.com",
		apiURL:       "https://oauth.reddit.com",
	}
}

func (c *RedditClient) Mentions(ctx context.Context) ([]TickerMentions, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := c.hotPosts(ctx, token)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	tops := make(map[string]Post)
	for _, p := range posts {
		text := p.Title + " " + p.Selftext
		for _, m := range tickerPattern.FindAllStringSubmatch(text, -1) {
			sym := m[1]
			if _, skip := commonWords[sym]; skip {
				continue
			}
			counts[sym]++
			if best, ok := tops[sym]; !ok || p.Score > best.Score {
				tops[sym] = Post{
					Title: p.Title,
					Score: p.Score,
					URL:   "https://reddit.com" + p.Permalink,
				}
			}
		}
	}

	mentions := make([]TickerMentions, 0, len(counts))
	for sym, n := range counts {
		mentions = append(mentions, TickerMentions{Symbol: sym, Count: n, TopPost: tops[sym]})
	}
	sort.Slice(mentions, func(i, j int) bool {
		if mentions[i].Count == mentions[j].Count {
			return mentions[i].Symbol < mentions[j].Symbol
		}
		return mentions[i].Count > mentions[j].Count
	})
	if len(mentions) > topTickers {
		mentions = mentions[:topTickers]
	}
	return mentions, nil
}

func (c *RedditClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("reddit: failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit: token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit: token request returned status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("reddit: failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("reddit: empty access token")
	}
	return tok.AccessToken, nil
}

type redditPost struct {
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Score     int    `json:"score"`
	Permalink string `json:"permalink"`
}

func (c *RedditClient) hotPosts(ctx context.Context, token string) ([]redditPost, error) {
	u := fmt.Sprintf("%s/r/wallstreetbets/hot?limit=%d", c.apiURL, postLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: failed to create listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: listing request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit: listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reddit: failed to read listing: %w", err)
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data redditPost `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit: failed to parse listing: %w", err)
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}
