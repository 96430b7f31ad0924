package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"
)

// FileStore persists the delivery log as a single JSON file. The whole
// document is rewritten on each append; there is no incremental log.
type FileStore struct {
	path          string
	retentionDays int
}

func NewFileStore(path string, retentionDays int) *FileStore {
	return &FileStore{path: path, retentionDays: retentionDays}
}

func (s *FileStore) Load(_ context.Context) []Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("WARNING: history read failed, starting empty: %v", err)
		}
		return nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("WARNING: history parse failed, starting empty: %v", err)
		return nil
	}
	return doc.SentNews
}

func (s *FileStore) Append(ctx context.Context, records []Record, sentAt time.Time) error {
	current := s.Load(ctx)
	current = prune(current, sentAt, s.retentionDays)
	current = append(current, stamp(records, sentAt)...)

	data, err := json.MarshalIndent(document{SentNews: current}, "", "  ")
	if err != nil {
		return fmt.Errorf("history: failed to marshal document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("history: failed to write %s: %w", s.path, err)
	}
	log.Printf("Recorded %d delivered items (%d total in history)", len(records), len(current))
	return nil
}
