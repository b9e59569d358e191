package esdex

import (
	"context"
	"fmt"
	"time"
)

// Client is the esdex entry point. It carries the Connection explicitly;
// every builder created from it resolves the engine handle at terminal time.
type Client struct {
	conn *Connection
	obs  *observer
	now  func() time.Time
}

// New creates a Client over conn. conn may still be unconfigured; operations
// then fail with ErrNotConfigured until Configure succeeds.
func New(conn *Connection, opts ...Option) (*Client, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: connection", ErrMissingParameter)
	}
	cfg := &clientConfig{now: time.Now}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg, cfg.now)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, obs: obs, now: cfg.now}, nil
}

// Open configures a new go-elasticsearch backed Connection and wraps it in a Client.
func Open(cfg Config, opts ...Option) (*Client, error) {
	conn := NewConnection(nil)
	if err := conn.Configure(cfg); err != nil {
		return nil, err
	}
	return New(conn, opts...)
}

// Connection returns the connection this client resolves handles from.
func (c *Client) Connection() *Connection { return c.conn }

// Engine returns the current engine handle for operations the builders do not cover.
func (c *Client) Engine() (Engine, error) { return c.conn.Handle() }

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	start := c.now()
	h, err := c.conn.Handle()
	if err == nil {
		if perr := h.Ping(ctx); perr != nil {
			err = AdaptError(perr)
		}
	}
	c.obs.observe("ping", start, err)
	return err
}
