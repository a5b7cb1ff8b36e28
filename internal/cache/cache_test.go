package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/history"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func entryIDs(entries []history.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCache_EntriesPaging(t *testing.T) {
	c := openTestCache(t)
	var entries []history.Entry
	for _, id := range []int64{3, 300, 7, 42, 256} {
		entries = append(entries, history.Entry{ID: id, Title: "t"})
	}
	if err := c.PutEntries(entries); err != nil {
		t.Fatalf("PutEntries: %v", err)
	}

	tests := []struct {
		name string
		get  func() ([]history.Entry, error)
		want []int64
	}{
		{"all", func() ([]history.Entry, error) { return c.Entries(0) }, []int64{300, 256, 42, 7, 3}},
		{"limited", func() ([]history.Entry, error) { return c.Entries(2) }, []int64{300, 256}},
		{"below existing", func() ([]history.Entry, error) { return c.EntriesBelow(42, 0) }, []int64{7, 3}},
		{"below missing", func() ([]history.Entry, error) { return c.EntriesBelow(100, 1) }, []int64{42}},
		{"below everything", func() ([]history.Entry, error) { return c.EntriesBelow(1000, 0) }, []int64{300, 256, 42, 7, 3}},
		{"above", func() ([]history.Entry, error) { return c.EntriesAbove(7, 2) }, []int64{42, 256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(entryIDs(got), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, entryIDs(got))
			}
		})
	}
}

func TestCache_PutEntriesOverwritesTitle(t *testing.T) {
	c := openTestCache(t)
	_ = c.PutEntries([]history.Entry{{ID: 1, Title: history.DefaultTitle}})
	_ = c.PutEntries([]history.Entry{{ID: 1, Title: "named"}})

	got, err := c.Entries(0)
	if err != nil || len(got) != 1 || got[0].Title != "named" {
		t.Fatalf("expected overwritten entry, got %+v, %v", got, err)
	}

	e, err := c.Entry(1)
	if err != nil || e.Title != "named" {
		t.Fatalf("unexpected entry %+v, %v", e, err)
	}
	if _, err := c.Entry(2); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}

func TestCache_Transcript(t *testing.T) {
	c := openTestCache(t)
	msgs := []backend.StoredMessage{
		{Role: "user", Content: backend.PartsContent(backend.TextPart("hi"))},
		{Role: "assistant", Content: backend.StringContent("hello")},
	}
	if err := c.PutTranscript(9, msgs); err != nil {
		t.Fatalf("PutTranscript: %v", err)
	}

	got, err := c.Transcript(9)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(got) != 2 || !got[0].Content.IsParts || got[1].Content.Text != "hello" {
		t.Fatalf("unexpected transcript %+v", got)
	}

	if _, err := c.Transcript(10); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
}
