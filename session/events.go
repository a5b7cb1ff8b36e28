package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// EventKind identifies what changed in the controller
type EventKind int

const (
	// EventMessages: the transcript changed.
	EventMessages EventKind = iota
	// EventHistory: the history list changed.
	EventHistory
	// EventSession: the current session id changed.
	EventSession
	// EventStreamStart: a generation started.
	EventStreamStart
	// EventStreamEnd: a generation ended, cleanly or not.
	EventStreamEnd
	// EventError: a user-visible failure. Err is set.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessages:
		return "messages"
	case EventHistory:
		return "history"
	case EventSession:
		return "session"
	case EventStreamStart:
		return "stream_start"
	case EventStreamEnd:
		return "stream_end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event notifies a listener. Events carry no state; listeners read
// snapshots from the controller.
type Event struct {
	Kind      EventKind
	SessionID int64
	RunID     string
	Err       error
}

// Listener receives controller events. It is called from several goroutines
// and must not call back into the controller synchronously.
type Listener func(Event)

// DefaultEventRate bounds how often EventMessages is delivered while text
// streams in.
const DefaultEventRate = rate.Limit(30)

// emitter delivers events, coalescing bursts of EventMessages. A message
// event that exceeds the rate is delivered once the limiter allows it, so
// the last change is never lost.
type emitter struct {
	fn      Listener
	limiter *rate.Limiter

	mu       sync.Mutex
	trailing *time.Timer
	closed   bool
}

func newEmitter(fn Listener, limit rate.Limit) *emitter {
	return &emitter{fn: fn, limiter: rate.NewLimiter(limit, 1)}
}

func (e *emitter) emit(ev Event) {
	if e.fn == nil {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if ev.Kind != EventMessages {
		e.mu.Unlock()
		e.fn(ev)
		return
	}
	if e.trailing != nil {
		e.mu.Unlock()
		return
	}
	if e.limiter.Allow() {
		e.mu.Unlock()
		e.fn(ev)
		return
	}

	delay := e.limiter.Reserve().Delay()
	e.trailing = time.AfterFunc(delay, func() {
		e.mu.Lock()
		e.trailing = nil
		closed := e.closed
		e.mu.Unlock()
		if !closed {
			e.fn(ev)
		}
	})
	e.mu.Unlock()
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.trailing != nil {
		e.trailing.Stop()
		e.trailing = nil
	}
}
