package history

import (
	"context"
	"log"
	"time"
)

// Record is one delivered story. Records are written exactly once per
// delivered item and never mutated; pruning is the only removal path.
type Record struct {
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	Summary string    `json:"summary"`
	SentAt  time.Time `json:"sent_at"`
}

// document is the persisted shape: a single JSON object holding the
// ordered record sequence, insertion order = delivery order.
type document struct {
	SentNews []Record `json:"sent_news"`
}

// Store is the rolling delivery log. Load never fails: a missing or
// unreadable backing store is a valid cold start and yields an empty
// sequence.
type Store interface {
	// Load returns the full persisted sequence, oldest first.
	Load(ctx context.Context) []Record
	// Append stamps each record with the shared sentAt, prunes entries
	// older than the retention window, and rewrites the whole document.
	Append(ctx context.Context, records []Record, sentAt time.Time) error
}

// FilterWindow returns the subset of records sent within the last
// windowDays. The boundary is exclusive: a record aged exactly windowDays
// is dropped.
func FilterWindow(records []Record, now time.Time, windowDays int) []Record {
	cutoff := now.AddDate(0, 0, -windowDays)
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.SentAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

// prune drops records outside the retention window and logs how many went.
func prune(records []Record, now time.Time, retentionDays int) []Record {
	kept := FilterWindow(records, now, retentionDays)
	if removed := len(records) - len(kept); removed > 0 {
		log.Printf("Pruned %d history records older than %d days", removed, retentionDays)
	}
	return kept
}

func stamp(records []Record, sentAt time.Time) []Record {
	stamped := make([]Record, len(records))
	for i, r := range records {
		r.SentAt = sentAt
		stamped[i] = r
	}
	return stamped
}
