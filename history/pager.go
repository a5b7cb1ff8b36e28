package history

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrPageInFlight is returned when a page load is already running
var ErrPageInFlight = errors.New("history page load already in flight")

// PageSource fetches history pages relative to a cursor id
type PageSource interface {
	// ChatsBelow returns entries older than id, newest first.
	ChatsBelow(ctx context.Context, id int64) ([]Entry, error)
	// ChatsAbove returns entries newer than id.
	ChatsAbove(ctx context.Context, id int64) ([]Entry, error)
}

// Pager loads further pages into a List. At most one older-page load and one
// newer-page load run at a time.
type Pager struct {
	list      *List
	source    PageSource
	older     atomic.Bool
	newer     atomic.Bool
	exhausted atomic.Bool
}

// NewPager creates a pager filling list from source
func NewPager(list *List, source PageSource) *Pager {
	return &Pager{list: list, source: source}
}

// LoadOlder fetches the page below the oldest listed entry and appends it.
// It returns the number of entries added. An empty list has no cursor and
// loads nothing.
func (p *Pager) LoadOlder(ctx context.Context) (int, error) {
	if !p.older.CompareAndSwap(false, true) {
		return 0, ErrPageInFlight
	}
	defer p.older.Store(false)

	cursor, ok := p.list.Oldest()
	if !ok {
		return 0, nil
	}
	page, err := p.source.ChatsBelow(ctx, cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to load history below %d: %w", cursor, err)
	}
	if len(page) == 0 {
		p.exhausted.Store(true)
		return 0, nil
	}
	return p.list.AppendPage(page), nil
}

// LoadNewer fetches entries above the newest listed entry and prepends them.
// With an empty list there is no cursor and nothing is loaded.
func (p *Pager) LoadNewer(ctx context.Context) (int, error) {
	if !p.newer.CompareAndSwap(false, true) {
		return 0, ErrPageInFlight
	}
	defer p.newer.Store(false)

	cursor, ok := p.list.Newest()
	if !ok {
		return 0, nil
	}
	page, err := p.source.ChatsAbove(ctx, cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to load history above %d: %w", cursor, err)
	}
	return p.list.PrependPage(page), nil
}

// Exhausted reports whether an older-page load has come back empty
func (p *Pager) Exhausted() bool {
	return p.exhausted.Load()
}

// Reset clears the exhausted mark, e.g. after the list was replaced
func (p *Pager) Reset() {
	p.exhausted.Store(false)
}
