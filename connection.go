package esdex

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esdex/internal/engine"
	"github.com/kailas-cloud/esdex/internal/engine/elastic"
)

// Engine is the handle every builder talks to. The default implementation
// is backed by go-elasticsearch; tests may supply their own.
type Engine = engine.Engine

// Request is the parameter structure passed to Engine methods.
type Request = engine.Request

// DefaultURL is the engine address used when Config.URL is empty.
const DefaultURL = elastic.DefaultURL

// Config holds the engine connection settings.
type Config struct {
	URL string `yaml:"url"`
	// KeepAlive toggles HTTP keep-alive; nil keeps the transport default.
	KeepAlive *bool `yaml:"keep_alive"`
	// LogBodies adds request and response bodies to round trip logs.
	LogBodies bool `yaml:"log_bodies"`
	// Logger receives engine round trip logs. nil disables them.
	Logger *zap.Logger `yaml:"-"`
}

// Dialer builds an engine handle from a Config. It must not block on the network.
type Dialer func(Config) (Engine, error)

// DialElastic is the default Dialer.
func DialElastic(cfg Config) (Engine, error) {
	s, err := elastic.NewStore(elastic.Config{
		URL:       cfg.URL,
		KeepAlive: cfg.KeepAlive,
		Logger:    cfg.Logger,
		LogBodies: cfg.LogBodies,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

type handle struct {
	engine Engine
}

// Connection owns the current engine handle. Configure replaces the handle
// atomically; builders resolve it when their terminal operation runs, so a
// builder created before a reconfiguration uses the new handle.
type Connection struct {
	dial   Dialer
	config atomic.Pointer[Config]
	handle atomic.Pointer[handle]
}

// NewConnection returns an unconfigured Connection. A nil dial uses DialElastic.
func NewConnection(dial Dialer) *Connection {
	if dial == nil {
		dial = DialElastic
	}
	return &Connection{dial: dial}
}

// Configure stores cfg and replaces the handle with a fresh one.
// On error the previous configuration and handle stay in place.
func (c *Connection) Configure(cfg Config) error {
	dialCfg := cfg
	if dialCfg.URL == "" {
		dialCfg.URL = DefaultURL
	}
	e, err := c.dial(dialCfg)
	if err != nil {
		return fmt.Errorf("esdex: configure: %w", err)
	}
	c.config.Store(&cfg)
	c.handle.Store(&handle{engine: e})
	return nil
}

// Config returns the last stored configuration and whether there is one.
func (c *Connection) Config() (Config, bool) {
	cfg := c.config.Load()
	if cfg == nil {
		return Config{}, false
	}
	return *cfg, true
}

// Handle returns the current engine handle or ErrNotConfigured.
func (c *Connection) Handle() (Engine, error) {
	h := c.handle.Load()
	if h == nil {
		return nil, ErrNotConfigured
	}
	return h.engine, nil
}

// SetHandle installs e directly, bypassing the Dialer.
func (c *Connection) SetHandle(e Engine) {
	if e == nil {
		c.handle.Store(nil)
		return
	}
	c.handle.Store(&handle{engine: e})
}
