package esdex

import (
	"context"
	"errors"
	"net/http"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// AliasBuilder points an alias at an index.
type AliasBuilder struct {
	c    *Client
	name string
}

// CreateAlias starts an alias creation.
func (c *Client) CreateAlias(name string) AliasBuilder {
	return AliasBuilder{c: c, name: name}
}

// To points the alias at index.
func (b AliasBuilder) To(ctx context.Context, index string) (map[string]any, error) {
	if b.name == "" {
		return fail[map[string]any](b.c, engine.OpPutAlias, missing("alias"))
	}
	if index == "" {
		return fail[map[string]any](b.c, engine.OpPutAlias, missing("index"))
	}
	req := Request{Index: index, Name: b.name}
	return run(ctx, b.c, engine.OpPutAlias, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.PutAlias(ctx, req)
	}, decodeObject)
}

// For is an alias of To.
func (b AliasBuilder) For(ctx context.Context, index string) (map[string]any, error) {
	return b.To(ctx, index)
}

// DeleteAliasBuilder removes an alias from an index.
type DeleteAliasBuilder struct {
	c    *Client
	name string
}

// DeleteAlias starts an alias removal.
func (c *Client) DeleteAlias(name string) DeleteAliasBuilder {
	return DeleteAliasBuilder{c: c, name: name}
}

// From removes the alias from index.
func (b DeleteAliasBuilder) From(ctx context.Context, index string) (map[string]any, error) {
	if b.name == "" {
		return fail[map[string]any](b.c, engine.OpDeleteAlias, missing("alias"))
	}
	if index == "" {
		return fail[map[string]any](b.c, engine.OpDeleteAlias, missing("index"))
	}
	req := Request{Index: index, Name: b.name}
	return run(ctx, b.c, engine.OpDeleteAlias, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.DeleteAlias(ctx, req)
	}, decodeObject)
}

// GetAlias returns the index alias name points to. An alias that does not
// exist is not an error: found is false and index is empty. When the alias
// spans several indices the first one reported is returned.
func (c *Client) GetAlias(ctx context.Context, name string) (index string, found bool, err error) {
	if name == "" {
		_, err = fail[struct{}](c, engine.OpGetAlias, missing("alias"))
		return "", false, err
	}
	req := Request{Name: name}
	index, err = run(ctx, c, engine.OpGetAlias, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.GetAlias(ctx, req)
	}, func(raw []byte) (string, error) {
		key, _ := firstKey(raw)
		return key, nil
	})
	if err != nil {
		if isMiss(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return index, index != "", nil
}

// CheckAliasExists reports whether alias name exists.
func (c *Client) CheckAliasExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return fail[bool](c, engine.OpAliasExists, missing("alias"))
	}
	req := Request{Name: name}
	return check(ctx, c, engine.OpAliasExists, func(ctx context.Context, e Engine) (bool, error) {
		return e.AliasExists(ctx, req)
	})
}

// isMiss reports an engine 404.
func isMiss(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Status == http.StatusNotFound
}
