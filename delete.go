package esdex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// DeleteResult is the outcome of a delete. A by-id delete fills Results
// with the removed id (empty on a miss) and Total with 0 or 1. A by-query
// delete fills Shards with the engine's shard outcome and Total with the
// number of deleted documents when the engine reports it.
type DeleteResult struct {
	Results []string       `json:"results"`
	Total   int            `json:"total"`
	Shards  map[string]any `json:"shards,omitempty"`
}

// DeleteBuilder removes documents by id or by query.
type DeleteBuilder struct {
	c        *Client
	id       string
	query    any
	byQuery  bool
	typeName string
}

// DeleteByID starts a single document delete.
func (c *Client) DeleteByID(id string) DeleteBuilder {
	return DeleteBuilder{c: c, id: id}
}

// DeleteByQuery starts a delete of every document matching query.
func (c *Client) DeleteByQuery(query any) DeleteBuilder {
	return DeleteBuilder{c: c, query: query, byQuery: true}
}

// OfType sets the document type.
func (b DeleteBuilder) OfType(typeName string) DeleteBuilder {
	b.typeName = typeName
	return b
}

// ByQuery reports whether the builder deletes by query.
func (b DeleteBuilder) ByQuery() bool { return b.byQuery }

// From runs the delete against index.
func (b DeleteBuilder) From(ctx context.Context, index string) (DeleteResult, error) {
	if b.byQuery {
		return b.fromQuery(ctx, index)
	}
	if b.id == "" {
		return fail[DeleteResult](b.c, engine.OpDelete, missing("id"))
	}
	req := Request{Index: index, Type: b.typeName, ID: b.id}
	id := b.id
	return run(ctx, b.c, engine.OpDelete, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Delete(ctx, req)
	}, func(raw []byte) (DeleteResult, error) {
		return decodeDelete(raw, id)
	})
}

func (b DeleteBuilder) fromQuery(ctx context.Context, index string) (DeleteResult, error) {
	if b.query == nil {
		return fail[DeleteResult](b.c, engine.OpDeleteByQuery, missing("query"))
	}
	body, err := encode(map[string]any{"query": b.query})
	if err != nil {
		return fail[DeleteResult](b.c, engine.OpDeleteByQuery, err)
	}
	req := Request{Index: index, Type: b.typeName, Body: body}
	return run(ctx, b.c, engine.OpDeleteByQuery, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.DeleteByQuery(ctx, req)
	}, func(raw []byte) (DeleteResult, error) {
		return decodeDeleteByQuery(raw, index)
	})
}

func decodeDelete(raw []byte, id string) (DeleteResult, error) {
	var resp struct {
		Found  *bool  `json:"found"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return DeleteResult{}, fmt.Errorf("decode delete response: %w", err)
	}
	found := resp.Result == "deleted" || (resp.Found != nil && *resp.Found)
	if !found {
		return DeleteResult{Results: []string{}, Total: 0}, nil
	}
	return DeleteResult{Results: []string{id}, Total: 1}, nil
}

// decodeDeleteByQuery picks the shard outcome for index from the legacy
// per-index report, falling back to the first index reported when index
// is an alias. Responses without _indices are returned whole.
func decodeDeleteByQuery(raw []byte, index string) (DeleteResult, error) {
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(raw, &resp); err != nil {
		return DeleteResult{}, fmt.Errorf("decode delete_by_query response: %w", err)
	}

	out := DeleteResult{Results: []string{}}
	if d, ok := resp["deleted"]; ok {
		if err := json.Unmarshal(d, &out.Total); err != nil {
			return DeleteResult{}, fmt.Errorf("decode delete_by_query deleted: %w", err)
		}
	}

	indices, ok := resp["_indices"]
	if !ok {
		whole, err := decodeObject(raw)
		if err != nil {
			return DeleteResult{}, err
		}
		out.Shards = whole
		return out, nil
	}

	var perIndex map[string]struct {
		Shards map[string]any `json:"_shards"`
	}
	if err := json.Unmarshal(indices, &perIndex); err != nil {
		return DeleteResult{}, fmt.Errorf("decode delete_by_query indices: %w", err)
	}
	name := index
	if _, ok := perIndex[name]; !ok {
		// алиас: берём первый индекс из ответа
		name, _ = firstKey(indices)
	}
	out.Shards = perIndex[name].Shards
	return out, nil
}
