package esdex

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// CheckIndexExists reports whether index exists.
func (c *Client) CheckIndexExists(ctx context.Context, index string) (bool, error) {
	if index == "" {
		return fail[bool](c, engine.OpIndexExists, missing("index"))
	}
	req := Request{Index: index}
	return check(ctx, c, engine.OpIndexExists, func(ctx context.Context, e Engine) (bool, error) {
		return e.IndexExists(ctx, req)
	})
}

// CreateIndex creates index. body, when given, carries settings and mappings.
func (c *Client) CreateIndex(ctx context.Context, index string, body ...any) (map[string]any, error) {
	if index == "" {
		return fail[map[string]any](c, engine.OpCreateIndex, missing("index"))
	}
	req := Request{Index: index}
	if len(body) > 0 && body[0] != nil {
		b, err := encode(body[0])
		if err != nil {
			return fail[map[string]any](c, engine.OpCreateIndex, err)
		}
		req.Body = b
	}
	return run(ctx, c, engine.OpCreateIndex, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.CreateIndex(ctx, req)
	}, decodeObject)
}

// DestroyIndex deletes index and every document in it.
func (c *Client) DestroyIndex(ctx context.Context, index string) (map[string]any, error) {
	if index == "" {
		return fail[map[string]any](c, engine.OpDeleteIndex, missing("index"))
	}
	req := Request{Index: index}
	return run(ctx, c, engine.OpDeleteIndex, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.DeleteIndex(ctx, req)
	}, decodeObject)
}

// Bulk sends actions as one newline delimited bulk body, action and source
// lines in the order given. The engine response is returned unadapted.
func (c *Client) Bulk(ctx context.Context, actions []any) (map[string]any, error) {
	if len(actions) == 0 {
		return fail[map[string]any](c, engine.OpBulk, missing("actions"))
	}
	body, err := ndjson(actions)
	if err != nil {
		return fail[map[string]any](c, engine.OpBulk, err)
	}
	req := Request{Body: body}
	return run(ctx, c, engine.OpBulk, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Bulk(ctx, req)
	}, decodeObject)
}

func ndjson(lines []any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, line := range lines {
		if err := enc.Encode(line); err != nil {
			return nil, unsupported("bulk line %d: %v", i, err)
		}
	}
	return buf.Bytes(), nil
}
