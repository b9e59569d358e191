package esdex

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// DefaultGetAllSize is the page size of GetAll when Size is not called.
const DefaultGetAllSize = 1000

const opGetAll = "get_all"

// GetAllBuilder lists the documents of one type.
type GetAllBuilder struct {
	c        *Client
	typeName string
	offset   int
	size     int
	fields   []string
	filter   any
	sort     []string
}

// GetAll starts a listing of every document of typeName.
func (c *Client) GetAll(typeName string) GetAllBuilder {
	return GetAllBuilder{c: c, typeName: typeName, size: DefaultGetAllSize}
}

// WithOffset sets the number of documents to skip.
func (b GetAllBuilder) WithOffset(n int) GetAllBuilder {
	b.offset = n
	return b
}

// Fields restricts the returned source fields.
func (b GetAllBuilder) Fields(fields ...string) GetAllBuilder {
	b.fields = slices.Clone(fields)
	return b
}

// Size sets the page size.
func (b GetAllBuilder) Size(n int) GetAllBuilder {
	b.size = n
	return b
}

// FilterBy sets a post filter.
func (b GetAllBuilder) FilterBy(filter any) GetAllBuilder {
	b.filter = filter
	return b
}

// SortBy sets the sort as "field:direction" pairs separated by commas,
// e.g. "createdAt:desc,title:asc".
func (b GetAllBuilder) SortBy(sort string) GetAllBuilder {
	b.sort = nil
	for part := range strings.SplitSeq(sort, ",") {
		if p := strings.TrimSpace(part); p != "" {
			b.sort = append(b.sort, p)
		}
	}
	return b
}

// From lists the documents stored in index.
func (b GetAllBuilder) From(ctx context.Context, index string) (Results, error) {
	if b.typeName == "" {
		return fail[Results](b.c, opGetAll, missing("type"))
	}
	req := Request{
		Index:  index,
		Query:  "_type:" + b.typeName,
		From:   engine.Int(b.offset),
		Size:   engine.Int(b.size),
		Sort:   b.sort,
		Fields: b.fields,
	}
	if b.filter != nil {
		body, err := encode(map[string]any{"post_filter": b.filter})
		if err != nil {
			return fail[Results](b.c, opGetAll, err)
		}
		req.Body = body
	}
	return run(ctx, b.c, opGetAll, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Search(ctx, req)
	}, decodeSearch)
}

// CountBuilder counts the documents of one type matching a query.
type CountBuilder struct {
	c        *Client
	typeName string
	query    any
	err      error
}

// Count starts a count of documents of typeName. An empty type counts
// documents of every type.
func (c *Client) Count(typeName string) CountBuilder {
	return CountBuilder{c: c, typeName: typeName}
}

// ThatMatch sets the query. A query object with a top-level "filter" key is
// rejected; wrap filters in a bool query instead.
func (b CountBuilder) ThatMatch(query any) CountBuilder {
	b.query = query
	b.err = nil
	if hasKey(query, "filter") {
		b.err = unsupported("count query must not carry a top-level filter")
	}
	return b
}

// From counts the matching documents in index. index may be empty to count
// across all indices.
func (b CountBuilder) From(ctx context.Context, index string) (int, error) {
	if b.err != nil {
		return fail[int](b.c, engine.OpCount, b.err)
	}
	req := Request{Index: index, Type: b.typeName}
	if b.query != nil {
		body, err := encode(map[string]any{"query": b.query})
		if err != nil {
			return fail[int](b.c, engine.OpCount, err)
		}
		req.Body = body
	}
	return run(ctx, b.c, engine.OpCount, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Count(ctx, req)
	}, decodeCount)
}

func decodeCount(raw []byte) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return resp.Count, nil
}

// hasKey reports whether v encodes to a JSON object with a top-level key.
func hasKey(v any, key string) bool {
	switch x := v.(type) {
	case nil:
		return false
	case map[string]any:
		_, ok := x[key]
		return ok
	case Document:
		_, ok := x[key]
		return ok
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return false
	}
	_, ok := probe[key]
	return ok
}
