package feed

import (
	"context"
	"fmt"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// FinnhubSource pulls market news from the Finnhub API as an additional
// source next to the RSS feeds.
type FinnhubSource struct {
	client   *finnhub.DefaultApiService
	category string
}

func NewFinnhubSource(apiKey, category string) *FinnhubSource {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &FinnhubSource{
		client:   finnhub.NewAPIClient(cfg).DefaultApi,
		category: category,
	}
}

func (s *FinnhubSource) Name() string { return "Finnhub" }

func (s *FinnhubSource) Fetch(ctx context.Context) ([]NewsItem, error) {
	res, _, err := s.client.MarketNews(ctx).Category(s.category).Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub: market news request failed: %w", err)
	}

	var items []NewsItem
	for _, news := range res {
		item := NewsItem{Source: s.Name()}
		if news.Headline != nil {
			item.Title = *news.Headline
		}
		if news.Url != nil {
			item.Link = *news.Url
		}
		if news.Summary != nil {
			item.Summary = *news.Summary
		}
		if news.Datetime != nil {
			item.Published = time.Unix(*news.Datetime, 0)
		}
		items = append(items, item)
	}
	return items, nil
}
