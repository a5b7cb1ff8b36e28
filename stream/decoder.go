package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
)

const (
	// DefaultMaxLineSize bounds a single pending line. Longer lines are dropped.
	DefaultMaxLineSize = 1 << 20
	defaultChunkSize   = 32 * 1024
)

// Option configures a Decoder
type Option func(*Decoder)

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxLine = n
		}
	}
}

// WithLogger sets the logger used for dropped frames.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithChunkSize sets the read buffer size used by Read.
func WithChunkSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// Decoder turns byte chunks into records. It keeps the incomplete trailing
// line of each chunk until the next chunk (or Flush) completes it. A Decoder
// serves exactly one stream.
type Decoder struct {
	buf       []byte
	skipping  bool
	maxLine   int
	chunkSize int
	dropped   int
	flushed   bool
	logger    *slog.Logger
}

// NewDecoder creates a decoder for a single stream
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxLine:   DefaultMaxLineSize,
		chunkSize: defaultChunkSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes the next chunk and returns the records completed by it.
func (d *Decoder) Feed(chunk []byte) []Record {
	if d.flushed {
		return nil
	}

	var out []Record
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			if !d.skipping {
				d.buf = append(d.buf, chunk...)
				if len(d.buf) > d.maxLine {
					d.drop("line exceeds max size", len(d.buf))
					d.buf = d.buf[:0]
					d.skipping = true
				}
			}
			break
		}

		switch {
		case d.skipping:
			d.skipping = false
		case len(d.buf)+i > d.maxLine:
			d.drop("line exceeds max size", len(d.buf)+i)
		default:
			d.buf = append(d.buf, chunk[:i]...)
			if rec, ok := d.line(); ok {
				out = append(out, rec)
			}
		}
		d.buf = d.buf[:0]
		chunk = chunk[i+1:]
	}
	return out
}

// Flush ends the stream. The pending fragment, if any, is parsed as the final
// line. Further calls to Feed or Flush return nothing.
func (d *Decoder) Flush() []Record {
	if d.flushed {
		return nil
	}
	d.flushed = true
	defer func() { d.buf = nil }()

	if d.skipping || len(d.buf) == 0 {
		return nil
	}
	if rec, ok := d.line(); ok {
		return []Record{rec}
	}
	return nil
}

// Dropped returns how many malformed or oversized frames were discarded.
func (d *Decoder) Dropped() int {
	return d.dropped
}

func (d *Decoder) line() (Record, bool) {
	text := strings.ToValidUTF8(string(d.buf), "�")
	rec, kind := parseLine(text)
	switch kind {
	case lineRecord:
		return rec, true
	case lineMalformed:
		d.drop("malformed frame", len(text))
	}
	return Record{}, false
}

func (d *Decoder) drop(reason string, size int) {
	d.dropped++
	d.logger.Debug("dropping frame", slog.String("reason", reason), slog.Int("size", size))
}

// Read decodes r until end of data. Records are yielded in order; a transport
// failure ends the sequence with a single error. Cancellation of ctx is
// reported as ctx.Err().
func Read(ctx context.Context, r io.Reader, opts ...Option) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		d := NewDecoder(opts...)
		chunk := make([]byte, d.chunkSize)

		for {
			if err := ctx.Err(); err != nil {
				yield(Record{}, err)
				return
			}

			n, err := r.Read(chunk)
			if n > 0 {
				for _, rec := range d.Feed(chunk[:n]) {
					if !yield(rec, nil) {
						return
					}
				}
			}
			if err == nil {
				continue
			}

			if errors.Is(err, io.EOF) {
				for _, rec := range d.Flush() {
					if !yield(rec, nil) {
						return
					}
				}
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(Record{}, ctxErr)
				return
			}
			yield(Record{}, fmt.Errorf("failed to read stream: %w", err))
			return
		}
	}
}
