package history

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
)

func ids(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func sameIDs(t *testing.T, got []Entry, want ...int64) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, g)
		}
	}
}

func TestList_PrependAndTitle(t *testing.T) {
	l := NewList(Entry{ID: 5, Title: "five"})

	if !l.Prepend(Entry{ID: 42, Title: DefaultTitle}) {
		t.Fatalf("expected prepend to succeed")
	}
	if l.Prepend(Entry{ID: 42, Title: "dup"}) {
		t.Fatalf("expected duplicate prepend to be rejected")
	}
	sameIDs(t, l.Entries(), 42, 5)

	if !l.SetTitle(42, "greeting") {
		t.Fatalf("expected SetTitle to find entry")
	}
	if l.SetTitle(7, "missing") {
		t.Fatalf("expected SetTitle on unknown id to report false")
	}
	if e, _ := l.Get(42); e.Title != "greeting" {
		t.Fatalf("expected renamed entry, got %+v", e)
	}
}

func TestList_AppendPageSkipsDuplicatesAndDisorder(t *testing.T) {
	l := NewList(Entry{ID: 10}, Entry{ID: 9})

	added := l.AppendPage([]Entry{{ID: 9}, {ID: 8}, {ID: 12}, {ID: 7}, {ID: 8}})
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}
	sameIDs(t, l.Entries(), 10, 9, 8, 7)
}

func TestList_PrependPageSortsNewestFirst(t *testing.T) {
	l := NewList(Entry{ID: 10})

	added := l.PrependPage([]Entry{{ID: 11}, {ID: 13}, {ID: 12}, {ID: 10}, {ID: 13}})
	if added != 3 {
		t.Fatalf("expected 3 added, got %d", added)
	}
	sameIDs(t, l.Entries(), 13, 12, 11, 10)
}

func TestEntry_DisplayTitle(t *testing.T) {
	if (Entry{ID: 1}).DisplayTitle() != DefaultTitle {
		t.Fatalf("expected default title for empty title")
	}
}

type pageSource struct {
	mu      sync.Mutex
	below   []int64
	release chan struct{}
	pages   map[int64][]Entry
}

func (s *pageSource) ChatsBelow(ctx context.Context, id int64) ([]Entry, error) {
	s.mu.Lock()
	s.below = append(s.below, id)
	s.mu.Unlock()
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.pages[id], nil
}

func (s *pageSource) ChatsAbove(_ context.Context, id int64) ([]Entry, error) {
	return s.pages[-id], nil
}

func TestPager_ConcurrentLoadsDoNotDuplicate(t *testing.T) {
	src := &pageSource{
		release: make(chan struct{}),
		pages:   map[int64][]Entry{3: {{ID: 2}, {ID: 1}}},
	}
	l := NewList(Entry{ID: 4}, Entry{ID: 3})
	p := NewPager(l, src)

	first := make(chan error, 1)
	go func() {
		_, err := p.LoadOlder(context.Background())
		first <- err
	}()

	// Wait until the first load is blocked inside the source.
	for {
		src.mu.Lock()
		n := len(src.below)
		src.mu.Unlock()
		if n == 1 {
			break
		}
		runtime.Gosched()
	}

	if _, err := p.LoadOlder(context.Background()); !errors.Is(err, ErrPageInFlight) {
		t.Fatalf("expected ErrPageInFlight, got %v", err)
	}

	close(src.release)
	if err := <-first; err != nil {
		t.Fatalf("first load: %v", err)
	}
	sameIDs(t, l.Entries(), 4, 3, 2, 1)

	if len(src.below) != 1 {
		t.Fatalf("expected a single fetch, got %v", src.below)
	}
}

func TestPager_ExhaustedOnEmptyPage(t *testing.T) {
	src := &pageSource{pages: map[int64][]Entry{}}
	p := NewPager(NewList(Entry{ID: 1}), src)

	if n, err := p.LoadOlder(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected empty load, got %d, %v", n, err)
	}
	if !p.Exhausted() {
		t.Fatalf("expected pager to be exhausted")
	}
	p.Reset()
	if p.Exhausted() {
		t.Fatalf("expected Reset to clear exhausted")
	}
}

func TestPager_EmptyListHasNoCursor(t *testing.T) {
	src := &pageSource{pages: map[int64][]Entry{}}
	p := NewPager(NewList(), src)

	if _, err := p.LoadOlder(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.below) != 0 {
		t.Fatalf("expected no fetch without a cursor")
	}
}

func TestPager_LoadNewer(t *testing.T) {
	src := &pageSource{pages: map[int64][]Entry{-5: {{ID: 6}, {ID: 7}}}}
	l := NewList(Entry{ID: 5})
	p := NewPager(l, src)

	n, err := p.LoadNewer(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 newer entries, got %d, %v", n, err)
	}
	sameIDs(t, l.Entries(), 7, 6, 5)
}
