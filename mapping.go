package esdex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// GetMappingBuilder reads the mapping of an index.
type GetMappingBuilder struct {
	c        *Client
	typeName string
}

// GetMapping starts a mapping read.
func (c *Client) GetMapping() GetMappingBuilder {
	return GetMappingBuilder{c: c}
}

// OfType narrows the result to the properties of one type.
func (b GetMappingBuilder) OfType(typeName string) GetMappingBuilder {
	b.typeName = typeName
	return b
}

// From returns the mappings of index. When index is an alias the first
// concrete index reported is used.
func (b GetMappingBuilder) From(ctx context.Context, index string) (map[string]any, error) {
	if index == "" {
		return fail[map[string]any](b.c, engine.OpGetMapping, missing("index"))
	}
	req := Request{Index: index, Type: b.typeName}
	typeName := b.typeName
	return run(ctx, b.c, engine.OpGetMapping, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.GetMapping(ctx, req)
	}, func(raw []byte) (map[string]any, error) {
		return decodeMapping(raw, index, typeName)
	})
}

func decodeMapping(raw []byte, index, typeName string) (map[string]any, error) {
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode mapping response: %w", err)
	}
	entry, ok := resp[index]
	if !ok {
		first, found := firstKey(raw)
		if !found {
			return map[string]any{}, nil
		}
		entry = resp[first]
	}

	var idx struct {
		Mappings map[string]any `json:"mappings"`
	}
	if err := json.Unmarshal(entry, &idx); err != nil {
		return nil, fmt.Errorf("decode mapping response: %w", err)
	}
	if idx.Mappings == nil {
		idx.Mappings = map[string]any{}
	}
	if typeName == "" {
		return idx.Mappings, nil
	}

	if typed, ok := idx.Mappings[typeName].(map[string]any); ok {
		if props, ok := typed["properties"].(map[string]any); ok {
			return props, nil
		}
		return map[string]any{}, nil
	}
	// typeless mapping
	if props, ok := idx.Mappings["properties"].(map[string]any); ok {
		return props, nil
	}
	return map[string]any{}, nil
}

// PutMappingBuilder writes the mapping of one type.
type PutMappingBuilder struct {
	c        *Client
	mapping  any
	typeName string
}

// PutMapping starts a mapping write. mapping is the type mapping object,
// typically {"properties": {...}} as built by MappingBuilder.
func (c *Client) PutMapping(mapping any) PutMappingBuilder {
	return PutMappingBuilder{c: c, mapping: mapping}
}

// OfType sets the mapped type. Required.
func (b PutMappingBuilder) OfType(typeName string) PutMappingBuilder {
	b.typeName = typeName
	return b
}

// Into writes the mapping to index and returns the engine acknowledgement.
func (b PutMappingBuilder) Into(ctx context.Context, index string) (map[string]any, error) {
	if index == "" {
		return fail[map[string]any](b.c, engine.OpPutMapping, missing("index"))
	}
	if b.typeName == "" {
		return fail[map[string]any](b.c, engine.OpPutMapping, missing("type"))
	}
	if b.mapping == nil {
		return fail[map[string]any](b.c, engine.OpPutMapping, missing("mapping"))
	}
	body, err := encode(b.mapping)
	if err != nil {
		return fail[map[string]any](b.c, engine.OpPutMapping, err)
	}
	req := Request{Index: index, Type: b.typeName, Body: body}
	return run(ctx, b.c, engine.OpPutMapping, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.PutMapping(ctx, req)
	}, decodeObject)
}
