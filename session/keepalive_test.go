package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestKeepAlive_StopWaitsForLoop(t *testing.T) {
	var pings atomic.Int32
	k := StartKeepAlive(context.Background(), 2*time.Millisecond, func(context.Context) error {
		if pings.Add(1)%2 == 0 {
			return errors.New("backend away")
		}
		return nil
	}, nil)

	eventually(t, "pings", func() bool { return pings.Load() >= 3 })
	k.Stop()
	n := pings.Load()
	time.Sleep(20 * time.Millisecond)
	if got := pings.Load(); got != n {
		t.Fatalf("expected no pings after Stop, went from %d to %d", n, got)
	}

	// Stopping twice and stopping nil are fine.
	k.Stop()
	var nilLoop *KeepAlive
	nilLoop.Stop()
}

func TestKeepAlive_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	k := StartKeepAlive(ctx, time.Hour, func(context.Context) error { return nil }, nil)
	cancel()

	select {
	case <-k.done:
	case <-time.After(time.Second):
		t.Fatalf("expected loop to exit when its context ends")
	}
}

func TestEmitter_CoalescesMessageEvents(t *testing.T) {
	var mu sync.Mutex
	var got []EventKind
	e := newEmitter(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Kind)
		mu.Unlock()
	}, rate.Limit(20))
	defer e.close()

	for i := 0; i < 10; i++ {
		e.emit(Event{Kind: EventMessages})
	}
	e.emit(Event{Kind: EventStreamEnd})

	count := func() (messages, others int) {
		mu.Lock()
		defer mu.Unlock()
		for _, k := range got {
			if k == EventMessages {
				messages++
			} else {
				others++
			}
		}
		return
	}

	if m, o := count(); m != 1 || o != 1 {
		t.Fatalf("expected one immediate message event and the end event, got %v", got)
	}
	eventually(t, "trailing message event", func() bool {
		m, _ := count()
		return m == 2
	})
	time.Sleep(100 * time.Millisecond)
	if m, _ := count(); m != 2 {
		t.Fatalf("expected exactly one trailing event, got %d message events", m)
	}
}
