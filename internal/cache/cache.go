// Package cache keeps a local copy of history entries and transcripts so the
// CLI can read them while the backend is down.
package cache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/history"
)

var (
	entriesBucket     = []byte("entries")
	transcriptsBucket = []byte("transcripts")
)

// ErrNotCached is returned for a transcript that was never stored
var ErrNotCached = errors.New("not in local cache")

// Cache is a bbolt file with one bucket of entries and one of transcripts,
// both keyed by conversation id.
type Cache struct {
	db *bolt.DB
}

// Open opens or creates the cache file at path
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, transcriptsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the file
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

// PutEntries stores or overwrites entries
func (c *Cache) PutEntries(entries []history.Entry) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, e := range entries {
			v, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal entry: %w", err)
			}
			if err := b.Put(key(e.ID), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns up to limit cached entries newest first. A limit of zero
// or less returns all of them.
func (c *Cache) Entries(limit int) ([]history.Entry, error) {
	return c.scanDown(nil, limit)
}

// EntriesBelow returns up to limit cached entries older than id, newest first
func (c *Cache) EntriesBelow(id int64, limit int) ([]history.Entry, error) {
	return c.scanDown(key(id), limit)
}

// EntriesAbove returns up to limit cached entries newer than id, oldest
// first, like the backend's above query.
func (c *Cache) EntriesAbove(id int64, limit int) ([]history.Entry, error) {
	var out []history.Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(entriesBucket).Cursor()
		k, v := cur.Seek(key(id + 1))
		for ; k != nil; k, v = cur.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// scanDown walks entries with keys strictly below upper, or all of them when
// upper is nil, in descending order.
func (c *Cache) scanDown(upper []byte, limit int) ([]history.Entry, error) {
	var out []history.Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(entriesBucket).Cursor()

		var k, v []byte
		if upper == nil {
			k, v = cur.Last()
		} else {
			k, v = cur.Seek(upper)
			if k == nil {
				k, v = cur.Last()
			} else {
				k, v = cur.Prev()
			}
		}
		for ; k != nil; k, v = cur.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Entry returns the cached entry for id
func (c *Cache) Entry(id int64) (history.Entry, error) {
	var e history.Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(entriesBucket).Get(key(id))
		if v == nil {
			return fmt.Errorf("entry %d: %w", id, ErrNotCached)
		}
		var err error
		e, err = decodeEntry(v)
		return err
	})
	return e, err
}

func decodeEntry(v []byte) (history.Entry, error) {
	var e history.Entry
	if err := json.Unmarshal(v, &e); err != nil {
		return history.Entry{}, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return e, nil
}

// PutTranscript stores the messages of conversation id
func (c *Cache) PutTranscript(id int64, msgs []backend.StoredMessage) error {
	v, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(transcriptsBucket).Put(key(id), v)
	})
}

// Transcript returns the cached messages of conversation id
func (c *Cache) Transcript(id int64) ([]backend.StoredMessage, error) {
	var msgs []backend.StoredMessage
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(transcriptsBucket).Get(key(id))
		if v == nil {
			return fmt.Errorf("chat %d: %w", id, ErrNotCached)
		}
		if err := json.Unmarshal(v, &msgs); err != nil {
			return fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
		return nil
	})
	return msgs, err
}
