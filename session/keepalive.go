package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultKeepAliveInterval is the period between keep-alive pings
const DefaultKeepAliveInterval = 10 * time.Second

// PingFunc sends one keep-alive ping
type PingFunc func(ctx context.Context) error

// KeepAlive is a running periodic ping. The zero value and nil are stopped
// loops.
type KeepAlive struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartKeepAlive pings every interval until ctx is done or Stop is called.
// Failed pings are logged and the loop carries on.
func StartKeepAlive(ctx context.Context, interval time.Duration, ping PingFunc, logger *slog.Logger) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(ctx)
	k := &KeepAlive{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(k.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pctx, pcancel := context.WithTimeout(ctx, interval)
				err := ping(pctx)
				pcancel()
				if err != nil && ctx.Err() == nil {
					logger.Warn("keep-alive ping failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
	return k
}

// Stop cancels the loop and waits for it to exit. It may be called more than
// once.
func (k *KeepAlive) Stop() {
	if k == nil || k.cancel == nil {
		return
	}
	k.cancel()
	<-k.done
}

// Cancel stops the loop without waiting
func (k *KeepAlive) Cancel() {
	if k == nil || k.cancel == nil {
		return
	}
	k.cancel()
}
