package session

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const defaultSaveTimeout = 10 * time.Second

type options struct {
	keepAliveInterval time.Duration
	saveTimeout       time.Duration
	eventRate         rate.Limit
	listener          Listener
	logger            *slog.Logger
}

// Option configures a Controller
type Option func(*options)

// WithKeepAliveInterval sets the keep-alive period
func WithKeepAliveInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.keepAliveInterval = d
		}
	}
}

// WithSaveTimeout bounds each save request
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveTimeout = d
		}
	}
}

// WithEventRate sets how many transcript events per second reach the
// listener. rate.Inf disables coalescing.
func WithEventRate(limit rate.Limit) Option {
	return func(o *options) {
		if limit > 0 {
			o.eventRate = limit
		}
	}
}

// WithListener sets the event listener
func WithListener(fn Listener) Option {
	return func(o *options) {
		o.listener = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
