package esdex

import (
	"context"
	"encoding/json"
)

// call issues one engine request against a resolved handle.
type call func(ctx context.Context, e Engine) ([]byte, error)

// run is the single path every terminal operation takes: resolve the
// handle, issue the call, adapt the response, observe the outcome.
// Engine and decode failures are returned as *EngineError.
func run[T any](ctx context.Context, c *Client, op string, do call, adapt func([]byte) (T, error)) (out T, err error) {
	start := c.now()
	defer func() { c.obs.observe(op, start, err) }()

	h, err := c.conn.Handle()
	if err != nil {
		return out, err
	}
	raw, err := do(ctx, h)
	if err != nil {
		return out, AdaptError(err)
	}
	out, err = adapt(raw)
	if err != nil {
		return out, AdaptError(err)
	}
	return out, nil
}

// check is run for the bool valued engine calls (exists probes).
func check(ctx context.Context, c *Client, op string, do func(ctx context.Context, e Engine) (bool, error)) (ok bool, err error) {
	start := c.now()
	defer func() { c.obs.observe(op, start, err) }()

	h, err := c.conn.Handle()
	if err != nil {
		return false, err
	}
	ok, err = do(ctx, h)
	if err != nil {
		return false, AdaptError(err)
	}
	return ok, nil
}

// fail records a validation error as an observed operation.
func fail[T any](c *Client, op string, err error) (T, error) {
	var zero T
	c.obs.observe(op, c.now(), err)
	return zero, err
}

// encode marshals a request body. Values that cannot be encoded are a
// caller shape error, reported before any network attempt.
func encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, unsupported("encode body: %v", err)
	}
	return b, nil
}
