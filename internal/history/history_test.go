package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentAt = time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

func TestFileStoreColdStart(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), 30)
	assert.Empty(t, store.Load(context.Background()))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewFileStore(path, 30)
	assert.Empty(t, store.Load(context.Background()))
}

func TestFileStoreAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, 30)
	ctx := context.Background()

	records := []Record{
		{Title: "First story", Link: "https://x/1", Summary: "s1"},
		{Title: "Second story", Link: "https://x/2", Summary: "s2"},
	}
	require.NoError(t, store.Append(ctx, records, sentAt))

	loaded := store.Load(ctx)
	require.Len(t, loaded, 2)
	assert.Equal(t, "First story", loaded[0].Title)
	assert.True(t, loaded[0].SentAt.Equal(sentAt), "records share the batch timestamp")
	assert.True(t, loaded[1].SentAt.Equal(sentAt))

	// Second append preserves order: oldest first.
	require.NoError(t, store.Append(ctx, []Record{{Title: "Third", Link: "https://x/3"}}, sentAt.Add(time.Hour)))
	loaded = store.Load(ctx)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Third", loaded[2].Title)
}

func TestFileStoreDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, 30)
	require.NoError(t, store.Append(context.Background(), []Record{{Title: "t", Link: "l"}}, sentAt))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "sent_news")
}

func TestFileStoreAppendPrunes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := NewFileStore(path, 30)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, []Record{{Title: "old", Link: "l"}}, sentAt.AddDate(0, 0, -31)))
	require.NoError(t, store.Append(ctx, []Record{{Title: "new", Link: "l"}}, sentAt))

	loaded := store.Load(ctx)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].Title)
}

func TestFilterWindow(t *testing.T) {
	now := sentAt
	records := []Record{
		{Title: "inside", SentAt: now.AddDate(0, 0, -6)},
		{Title: "just inside", SentAt: now.AddDate(0, 0, -7).Add(time.Second)},
		{Title: "boundary", SentAt: now.AddDate(0, 0, -7)},
		{Title: "outside", SentAt: now.AddDate(0, 0, -8)},
	}

	kept := FilterWindow(records, now, 7)
	require.Len(t, kept, 2)
	assert.Equal(t, "inside", kept[0].Title)
	assert.Equal(t, "just inside", kept[1].Title)
}

func TestFilterWindowEmpty(t *testing.T) {
	assert.Empty(t, FilterWindow(nil, sentAt, 7))
}
