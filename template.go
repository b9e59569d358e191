package esdex

import (
	"context"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// CreateTemplate stores index template name.
func (c *Client) CreateTemplate(ctx context.Context, name string, template any) (map[string]any, error) {
	if name == "" {
		return fail[map[string]any](c, engine.OpPutTemplate, missing("template name"))
	}
	if template == nil {
		return fail[map[string]any](c, engine.OpPutTemplate, missing("template"))
	}
	body, err := encode(template)
	if err != nil {
		return fail[map[string]any](c, engine.OpPutTemplate, err)
	}
	req := Request{Name: name, Body: body}
	return run(ctx, c, engine.OpPutTemplate, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.PutTemplate(ctx, req)
	}, decodeObject)
}

// DeleteTemplate removes index template name.
func (c *Client) DeleteTemplate(ctx context.Context, name string) (map[string]any, error) {
	if name == "" {
		return fail[map[string]any](c, engine.OpDeleteTemplate, missing("template name"))
	}
	req := Request{Name: name}
	return run(ctx, c, engine.OpDeleteTemplate, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.DeleteTemplate(ctx, req)
	}, decodeObject)
}

// GetTemplate returns index template name as the engine reports it, keyed by name.
func (c *Client) GetTemplate(ctx context.Context, name string) (map[string]any, error) {
	if name == "" {
		return fail[map[string]any](c, engine.OpGetTemplate, missing("template name"))
	}
	req := Request{Name: name}
	return run(ctx, c, engine.OpGetTemplate, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.GetTemplate(ctx, req)
	}, decodeObject)
}
