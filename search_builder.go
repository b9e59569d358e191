package esdex

import (
	"context"
	"slices"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// DefaultQuerySize is the page size of StringQuery and DslQuery when
// WithSize is not called.
const DefaultQuerySize = 1_000_000

const (
	opStringQuery = "query_string"
	opDslQuery    = "query_dsl"
)

type sortField struct {
	field     string
	direction string
}

// SearchBuilder is a fluent builder for string and structured queries.
// Each configuration call returns a new builder; the receiver is never modified.
type SearchBuilder struct {
	c *Client

	// Query parameters; dsl selects which one is sent.
	text  string
	query any
	dsl   bool

	typeName string
	offset   int
	size     int
	filter   any
	sort     []sortField
}

// StringQuery starts a query-string search (the engine's q= syntax).
func (c *Client) StringQuery(text string) SearchBuilder {
	return SearchBuilder{c: c, text: text, size: DefaultQuerySize}
}

// DslQuery starts a structured search; query is the engine query object.
// A nil query matches all documents.
func (c *Client) DslQuery(query any) SearchBuilder {
	return SearchBuilder{c: c, query: query, dsl: true, size: DefaultQuerySize}
}

// OfType restricts the search to one document type.
func (b SearchBuilder) OfType(typeName string) SearchBuilder {
	b.typeName = typeName
	return b
}

// WithOffset sets the number of hits to skip.
func (b SearchBuilder) WithOffset(n int) SearchBuilder {
	b.offset = n
	return b
}

// WithSize sets the page size.
func (b SearchBuilder) WithSize(n int) SearchBuilder {
	b.size = n
	return b
}

// FilterBy sets a filter applied to hits after the query (post_filter).
func (b SearchBuilder) FilterBy(filter any) SearchBuilder {
	b.filter = filter
	return b
}

// SortBy appends a sort key. Calls accumulate in order. direction may be
// empty, in which case field is passed through as-is (e.g. "title:asc"
// for string queries).
func (b SearchBuilder) SortBy(field, direction string) SearchBuilder {
	b.sort = append(slices.Clip(b.sort), sortField{field: field, direction: direction})
	return b
}

// IsDSL reports whether the builder sends a structured query.
func (b SearchBuilder) IsDSL() bool { return b.dsl }

// From runs the search against index.
func (b SearchBuilder) From(ctx context.Context, index string) (Results, error) {
	op := opStringQuery
	if b.dsl {
		op = opDslQuery
	}
	req, err := b.request(index)
	if err != nil {
		return fail[Results](b.c, op, err)
	}
	return run(ctx, b.c, op, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Search(ctx, req)
	}, decodeSearch)
}

func (b SearchBuilder) request(index string) (engine.Request, error) {
	req := Request{
		Index: index,
		Type:  b.typeName,
		From:  engine.Int(b.offset),
		Size:  engine.Int(b.size),
	}

	body := map[string]any{}
	if b.filter != nil {
		body["post_filter"] = b.filter
	}
	if b.dsl {
		if b.query != nil {
			body["query"] = b.query
		}
		if len(b.sort) > 0 {
			body["sort"] = b.bodySort()
		}
	} else {
		req.Query = b.text
		req.Sort = b.urlSort()
	}

	if len(body) > 0 {
		encoded, err := encode(body)
		if err != nil {
			return Request{}, err
		}
		req.Body = encoded
	}
	return req, nil
}

// bodySort renders [{field: {order: direction}}, ...].
func (b SearchBuilder) bodySort() []any {
	out := make([]any, 0, len(b.sort))
	for _, s := range b.sort {
		if s.direction == "" {
			out = append(out, s.field)
			continue
		}
		out = append(out, map[string]any{s.field: map[string]any{"order": s.direction}})
	}
	return out
}

// urlSort renders ["field:direction", ...].
func (b SearchBuilder) urlSort() []string {
	if len(b.sort) == 0 {
		return nil
	}
	out := make([]string, 0, len(b.sort))
	for _, s := range b.sort {
		if s.direction == "" {
			out = append(out, s.field)
			continue
		}
		out = append(out, s.field+":"+s.direction)
	}
	return out
}
