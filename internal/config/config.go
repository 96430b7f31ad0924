package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Language     string          `yaml:"language"`
	TopN         int             `yaml:"top_n"`
	RecencyHours int             `yaml:"recency_hours"`
	MorningTime  string          `yaml:"morning_time"`
	EveningTime  string          `yaml:"evening_time"`
	RunOnStart   bool            `yaml:"run_on_start"`
	Feeds        []FeedConfig    `yaml:"feeds"`
	Finnhub      FinnhubConfig   `yaml:"finnhub"`
	OpenAI       OpenAIConfig    `yaml:"openai"`
	Publisher    PublisherConfig `yaml:"publisher"`
	Telegram     TelegramConfig  `yaml:"telegram"`
	History      HistoryConfig   `yaml:"history"`
	Reddit       RedditConfig    `yaml:"reddit"`
	Trends       TrendsConfig    `yaml:"trends"`
}

type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type FinnhubConfig struct {
	APIKey   string `yaml:"api_key"`
	Category string `yaml:"category"`
}

type OpenAIConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	RollupModel string `yaml:"rollup_model"`
}

type PublisherConfig struct {
	Type string `yaml:"type"`
}

type TelegramConfig struct {
	BotToken    string   `yaml:"bot_token"`
	ChatIDs     []string `yaml:"chat_ids"`
	HeaderImage string   `yaml:"header_image"`
	CharLimit   int      `yaml:"char_limit"`
}

type HistoryConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RedisURL      string `yaml:"redis_url"`
	RetentionDays int    `yaml:"retention_days"`
}

type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type TrendsConfig struct {
	Enabled bool `yaml:"enabled"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	if cfg.TopN == 0 {
		cfg.TopN = 10
	}
	if cfg.RecencyHours == 0 {
		cfg.RecencyHours = 12
	}
	if cfg.MorningTime == "" {
		cfg.MorningTime = "08:00"
	}
	if cfg.EveningTime == "" {
		cfg.EveningTime = "22:00"
	}
	if cfg.Finnhub.Category == "" {
		cfg.Finnhub.Category = "general"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.RollupModel == "" {
		cfg.OpenAI.RollupModel = "gpt-4o"
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "telegram"
	}
	if cfg.Telegram.CharLimit == 0 {
		cfg.Telegram.CharLimit = 4000
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "file"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "sent_news_history.json"
	}
	// Retention must cover the monthly rollup's 30-day read window.
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = 30
	}
}

func validate(cfg *Config) error {
	if len(cfg.Feeds) == 0 && cfg.Finnhub.APIKey == "" {
		return fmt.Errorf("config: at least one feed or a finnhub api_key is required")
	}
	for i, f := range cfg.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("config: feeds[%d] requires both name and url", i)
		}
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("config: openai.api_key is required (set OPENAI_API_KEY env var)")
	}
	switch cfg.Publisher.Type {
	case "telegram":
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("config: telegram.bot_token is required for telegram publisher")
		}
		if len(cfg.Telegram.ChatIDs) == 0 {
			return fmt.Errorf("config: telegram.chat_ids is required for telegram publisher")
		}
	case "stdout":
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: telegram, stdout)", cfg.Publisher.Type)
	}
	switch cfg.History.Backend {
	case "file":
	case "redis":
		if cfg.History.RedisURL == "" {
			return fmt.Errorf("config: history.redis_url is required for redis backend")
		}
	default:
		return fmt.Errorf("config: unsupported history backend %q (supported: file, redis)", cfg.History.Backend)
	}
	if cfg.History.RetentionDays < 1 {
		return fmt.Errorf("config: history.retention_days must be at least 1")
	}
	if cfg.Telegram.CharLimit < 500 {
		return fmt.Errorf("config: telegram.char_limit must be at least 500")
	}
	for _, t := range []string{cfg.MorningTime, cfg.EveningTime} {
		if _, _, err := ParseClock(t); err != nil {
			return err
		}
	}
	return nil
}

// ParseClock splits an HH:MM string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("config: invalid time %q (want HH:MM)", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("config: invalid time %q (want HH:MM)", s)
	}
	return hour, minute, nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
