package stream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Prefix marks an event line. Anything else on the wire is ignored.
const Prefix = "data: "

// Signal tags the kind of text carried by the data frames that follow it
type Signal int

const (
	SignalAnswer   Signal = 0
	SignalThinking Signal = 1
	SignalToolCall Signal = 3
)

func (s Signal) String() string {
	switch s {
	case SignalAnswer:
		return "answer"
	case SignalThinking:
		return "thinking"
	case SignalToolCall:
		return "tool_call"
	default:
		return "signal(" + strconv.Itoa(int(s)) + ")"
	}
}

// Record is one parsed frame. Fields absent from the frame are nil.
type Record struct {
	ID     *int64  `json:"id,omitempty"`
	Title  *string `json:"title,omitempty"`
	Signal *Signal `json:"signal,omitempty"`
	Data   *string `json:"data,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// Encode returns the JSON payload of the record, without the line prefix.
func (r Record) Encode() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// A struct of pointers to scalars cannot fail to encode.
	_ = enc.Encode(r)
	return strings.TrimRight(buf.String(), "\n")
}

// Line returns the record as a single event line, without the trailing newline.
func (r Record) Line() string {
	return Prefix + r.Encode()
}

// Equal reports whether both records carry the same fields and values.
func (r Record) Equal(o Record) bool {
	return eqPtr(r.ID, o.ID) && eqPtr(r.Title, o.Title) && eqPtr(r.Signal, o.Signal) &&
		eqPtr(r.Data, o.Data) && eqPtr(r.Name, o.Name)
}

type lineKind int

const (
	lineIgnored lineKind = iota
	lineRecord
	lineMalformed
)

// ParseLine parses a single line. It reports false for lines that are not
// event lines and for event lines whose payload is not a JSON object.
func ParseLine(line string) (Record, bool) {
	rec, kind := parseLine(line)
	return rec, kind == lineRecord
}

func parseLine(line string) (Record, lineKind) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if !strings.HasPrefix(line, Prefix) {
		return Record{}, lineIgnored
	}
	payload := strings.TrimSpace(line[len(Prefix):])
	if payload == "" {
		return Record{}, lineIgnored
	}
	if payload[0] != '{' {
		return Record{}, lineMalformed
	}

	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Record{}, lineMalformed
	}
	return rec, lineRecord
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Helpers for building records in callers and tests.

func Int64(v int64) *int64 { return &v }

func String(v string) *string { return &v }

func SignalPtr(v Signal) *Signal { return &v }
