package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// historyKey holds the whole document in one value, mirroring the file
// backend's overwrite semantics.
const historyKey = "market-digest:sent_news_history"

// RedisStore keeps the same JSON document as FileStore in a single redis
// key, for deployments without a persistent volume.
type RedisStore struct {
	client        *redis.Client
	retentionDays int
}

func NewRedisStore(redisURL string, retentionDays int) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("history: invalid redis url: %w", err)
	}
	return &RedisStore{
		client:        redis.NewClient(opt),
		retentionDays: retentionDays,
	}, nil
}

func (s *RedisStore) Load(ctx context.Context) []Record {
	data, err := s.client.Get(ctx, historyKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("WARNING: history read failed, starting empty: %v", err)
		}
		return nil
	}
	var doc document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		log.Printf("WARNING: history parse failed, starting empty: %v", err)
		return nil
	}
	return doc.SentNews
}

func (s *RedisStore) Append(ctx context.Context, records []Record, sentAt time.Time) error {
	current := s.Load(ctx)
	current = prune(current, sentAt, s.retentionDays)
	current = append(current, stamp(records, sentAt)...)

	data, err := json.Marshal(document{SentNews: current})
	if err != nil {
		return fmt.Errorf("history: failed to marshal document: %w", err)
	}
	if err := s.client.Set(ctx, historyKey, data, 0).Err(); err != nil {
		return fmt.Errorf("history: failed to write redis key: %w", err)
	}
	log.Printf("Recorded %d delivered items (%d total in history)", len(records), len(current))
	return nil
}
