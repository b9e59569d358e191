// Package elastic implements engine.Engine on top of the official
// go-elasticsearch v7 client.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// Compile-time check: Store implements engine.Engine.
var _ engine.Engine = (*Store)(nil)

// DefaultURL is used when Config.URL is empty.
const DefaultURL = "http://localhost:9200"

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	URL string
	// KeepAlive toggles HTTP keep-alive; nil keeps the transport default.
	KeepAlive *bool
	// Logger receives one entry per round trip when set.
	Logger *zap.Logger
	// LogBodies includes request and response bodies in round trip logs.
	LogBodies bool
	// Transport overrides the HTTP transport (tests, proxies).
	Transport http.RoundTripper
}

// Store implements engine.Engine via go-elasticsearch.
type Store struct {
	client *elasticsearch.Client
}

// NewStore creates an Elasticsearch store. It does not contact the engine.
func NewStore(cfg Config) (*Store, error) {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	esCfg := elasticsearch.Config{
		Addresses:    []string{url},
		Transport:    cfg.Transport,
		DisableRetry: true,
	}
	if esCfg.Transport == nil && cfg.KeepAlive != nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DisableKeepAlives = !*cfg.KeepAlive
		esCfg.Transport = t
	}
	if cfg.Logger != nil {
		esCfg.Logger = &zapTransportLogger{logger: cfg.Logger, bodies: cfg.LogBodies}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.do(ctx, engine.OpPing, esapi.PingRequest{})
	return err
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for engine: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// do performs req and returns the response body. Statuses listed in allow
// are returned as regular responses instead of *engine.Error.
func (s *Store) do(ctx context.Context, op string, req esapi.Request, allow ...int) ([]byte, error) {
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, engine.NewUnavailable(op, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if res.IsError() && !slices.Contains(allow, res.StatusCode) {
		return nil, &engine.Error{Op: op, Status: res.StatusCode, Body: body}
	}
	return body, nil
}

// exists performs a HEAD style request: 200 is true, 404 is false.
func (s *Store) exists(ctx context.Context, op string, req esapi.Request) (bool, error) {
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return false, engine.NewUnavailable(op, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(res.Body)
		return false, &engine.Error{Op: op, Status: res.StatusCode, Body: body}
	}
}

func bodyReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

// one wraps a single optional name for list-valued request fields.
func one(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}

func boolPtr(b bool) *bool { return &b }
