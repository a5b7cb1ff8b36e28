package history

import (
	"slices"
	"sync"
)

// List is the history list ordered by descending id. It is safe for
// concurrent use.
type List struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewList creates a list from entries, newest first
func NewList(entries ...Entry) *List {
	l := &List{}
	l.Replace(entries)
	return l
}

// Entries returns a copy of the list
func (l *List) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Len returns the number of entries
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Replace swaps the whole list. Duplicate ids keep their first occurrence.
func (l *List) Replace(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0:0]
	for _, e := range entries {
		if l.indexLocked(e.ID) < 0 {
			l.entries = append(l.entries, e)
		}
	}
}

// Prepend inserts e at the head. It reports false, leaving the list
// unchanged, if the id is already present.
func (l *List) Prepend(e Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(e.ID) >= 0 {
		return false
	}
	l.entries = slices.Insert(l.entries, 0, e)
	return true
}

// AppendPage appends an older page at the tail, skipping entries that are
// already listed or that would break the descending order. It returns the
// number of entries added.
func (l *List) AppendPage(page []Entry) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, e := range page {
		if l.indexLocked(e.ID) >= 0 {
			continue
		}
		if n := len(l.entries); n > 0 && e.ID > l.entries[n-1].ID {
			continue
		}
		l.entries = append(l.entries, e)
		added++
	}
	return added
}

// PrependPage inserts a newer page at the head. The page may be in any order;
// it is sorted newest first before insertion. It returns the number of
// entries added.
func (l *List) PrependPage(page []Entry) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := make([]Entry, 0, len(page))
	for _, e := range page {
		if l.indexLocked(e.ID) >= 0 || slices.ContainsFunc(fresh, func(f Entry) bool { return f.ID == e.ID }) {
			continue
		}
		if len(l.entries) > 0 && e.ID < l.entries[0].ID {
			continue
		}
		fresh = append(fresh, e)
	}
	slices.SortFunc(fresh, func(a, b Entry) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	l.entries = slices.Insert(l.entries, 0, fresh...)
	return len(fresh)
}

// SetTitle renames the entry with the given id. It reports whether the
// entry was found.
func (l *List) SetTitle(id int64, title string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.entries[i].Title = title
	return true
}

// Get returns the entry with the given id
func (l *List) Get(id int64) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.entries[i], true
	}
	return Entry{}, false
}

// Oldest returns the id of the last entry
func (l *List) Oldest() (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return 0, false
	}
	return l.entries[len(l.entries)-1].ID, true
}

// Newest returns the id of the first entry
func (l *List) Newest() (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return 0, false
	}
	return l.entries[0].ID, true
}

func (l *List) indexLocked(id int64) int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
}
