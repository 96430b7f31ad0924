package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aqresearch/market-digest/internal/config"
	"github.com/aqresearch/market-digest/internal/curator"
	"github.com/aqresearch/market-digest/internal/dedupe"
	"github.com/aqresearch/market-digest/internal/digest"
	"github.com/aqresearch/market-digest/internal/feed"
	"github.com/aqresearch/market-digest/internal/history"
	"github.com/aqresearch/market-digest/internal/llm"
	"github.com/aqresearch/market-digest/internal/publisher"
	"github.com/aqresearch/market-digest/internal/rollup"
	"github.com/aqresearch/market-digest/internal/runner"
	"github.com/aqresearch/market-digest/internal/signals"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single job and exit")
	job := flag.String("job", "daily", "job to run in once mode: daily, weekly, monthly")
	flag.Parse()

	// Local .env is optional; in production the variables come from the host.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	r, err := buildRunner(cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	// Single-run mode: run one job and exit
	if *once {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		switch *job {
		case "daily":
			r.RunDaily(ctx)
		case "weekly":
			r.RunWeekly(ctx)
		case "monthly":
			r.RunMonthly(ctx)
		default:
			log.Fatalf("Unknown job: %s", *job)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunOnStart {
		log.Println("Running initial digest...")
		r.RunDaily(ctx)
	}

	// The morning slot carries the periodic rollups: weekly on Sundays,
	// monthly on the first of the month, each after the daily digest.
	c := cron.New()
	morning, err := cronSpec(cfg.MorningTime)
	if err != nil {
		log.Fatalf("Invalid morning_time: %v", err)
	}
	_, err = c.AddFunc(morning, func() {
		r.RunDaily(ctx)
		now := time.Now()
		if now.Weekday() == time.Sunday {
			time.Sleep(5 * time.Second)
			r.RunWeekly(ctx)
		}
		if now.Day() == 1 {
			time.Sleep(10 * time.Second)
			r.RunMonthly(ctx)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule morning job: %v", err)
	}

	evening, err := cronSpec(cfg.EveningTime)
	if err != nil {
		log.Fatalf("Invalid evening_time: %v", err)
	}
	if _, err := c.AddFunc(evening, func() { r.RunDaily(ctx) }); err != nil {
		log.Fatalf("Failed to schedule evening job: %v", err)
	}

	c.Start()
	log.Printf("Scheduled digests at %s and %s", cfg.MorningTime, cfg.EveningTime)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	cancel()
	c.Stop()
	log.Println("Shutdown complete")
}

func buildRunner(cfg *config.Config) (*runner.Runner, error) {
	var sources []feed.Source
	for _, f := range cfg.Feeds {
		sources = append(sources, feed.NewRSSSource(f.Name, f.URL))
	}
	if cfg.Finnhub.APIKey != "" {
		sources = append(sources, feed.NewFinnhubSource(cfg.Finnhub.APIKey, cfg.Finnhub.Category))
	}
	collector := feed.NewAggregator(sources, time.Duration(cfg.RecencyHours)*time.Hour)

	var store history.Store
	switch cfg.History.Backend {
	case "redis":
		rs, err := history.NewRedisStore(cfg.History.RedisURL, cfg.History.RetentionDays)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		store = rs
	default:
		store = history.NewFileStore(cfg.History.Path, cfg.History.RetentionDays)
	}

	completer := llm.NewOpenAIClient(cfg.OpenAI.APIKey)

	analyzer := rollup.New(store, completer, cfg.OpenAI.RollupModel, cfg.Language)
	if cfg.Reddit.ClientID != "" && cfg.Reddit.ClientSecret != "" {
		analyzer.Mentions = signals.NewRedditClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret)
		if cfg.Trends.Enabled {
			analyzer.Interest = signals.NewTrendsClient()
		}
	}

	var pub publisher.Publisher
	headerImage := ""
	switch cfg.Publisher.Type {
	case "telegram":
		pub = publisher.NewTelegramPublisher(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs)
		headerImage = cfg.Telegram.HeaderImage
	case "stdout":
		pub = publisher.NewStdoutPublisher()
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", cfg.Publisher.Type)
	}

	return &runner.Runner{
		Collector:   collector,
		Deduper:     dedupe.New(completer, cfg.OpenAI.Model),
		Selector:    curator.New(completer, cfg.OpenAI.Model, cfg.Language),
		Reporter:    analyzer,
		Store:       store,
		Composer:    digest.NewComposer(cfg.Telegram.CharLimit),
		Publisher:   pub,
		TopN:        cfg.TopN,
		HeaderImage: headerImage,
	}, nil
}

// cronSpec converts an HH:MM clock time into a daily cron expression.
func cronSpec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
