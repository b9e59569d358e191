package esdex

import (
	"context"
	"slices"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// GetBuilder fetches one document by id.
type GetBuilder struct {
	c        *Client
	id       string
	typeName string
}

// Get starts a single document fetch.
func (c *Client) Get(id string) GetBuilder {
	return GetBuilder{c: c, id: id}
}

// OfType sets the document type.
func (b GetBuilder) OfType(typeName string) GetBuilder {
	b.typeName = typeName
	return b
}

// From fetches the document from index.
func (b GetBuilder) From(ctx context.Context, index string) (Document, error) {
	if b.id == "" {
		return fail[Document](b.c, engine.OpGet, missing("id"))
	}
	req := Request{Index: index, Type: b.typeName, ID: b.id}
	return run(ctx, b.c, engine.OpGet, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Get(ctx, req)
	}, decodeDocument)
}

// GetManyBuilder fetches several documents by id.
type GetManyBuilder struct {
	c        *Client
	ids      []string
	typeName string
}

// GetMany starts a multi document fetch. Duplicate ids are requested once,
// in order of first occurrence.
func (c *Client) GetMany(ids ...string) GetManyBuilder {
	return GetManyBuilder{c: c, ids: unique(ids)}
}

// OfType sets the document type.
func (b GetManyBuilder) OfType(typeName string) GetManyBuilder {
	b.typeName = typeName
	return b
}

// From fetches the documents from index. Without ids it returns empty
// Results and never contacts the engine.
func (b GetManyBuilder) From(ctx context.Context, index string) (Results, error) {
	if len(b.ids) == 0 {
		return emptyResults(), nil
	}
	body, err := encode(map[string]any{"ids": b.ids})
	if err != nil {
		return fail[Results](b.c, engine.OpMultiGet, err)
	}
	req := Request{Index: index, Type: b.typeName, Body: body}
	return run(ctx, b.c, engine.OpMultiGet, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.MultiGet(ctx, req)
	}, decodeMultiGet)
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return slices.Clip(out)
}
