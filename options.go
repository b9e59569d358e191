package esdex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	now        func() time.Time
}

// WithLogger enables structured logging for terminal operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithClock overrides the clock used for createdAt/updatedAt stamps and
// operation timings. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		if now != nil {
			c.now = now
		}
	})
}
