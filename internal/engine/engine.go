// Package engine defines the contract between esdex builders and a search engine handle.
package engine

import "context"

// Engine is the facade over one engine connection. Every method takes a
// Request and returns the raw JSON response body, or an *Error carrying the
// engine's own error payload.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces
type Engine interface {
	Pinger
	DocumentStore
	Searcher
	IndexManager
	AliasManager
	TemplateManager
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore provides single and multi document operations.
type DocumentStore interface {
	Get(ctx context.Context, req Request) ([]byte, error)
	MultiGet(ctx context.Context, req Request) ([]byte, error)
	// Create stores a new document; an empty ID lets the engine assign one.
	Create(ctx context.Context, req Request) ([]byte, error)
	Update(ctx context.Context, req Request) ([]byte, error)
	// Delete reports a missing document as a normal response, not an *Error.
	Delete(ctx context.Context, req Request) ([]byte, error)
	DeleteByQuery(ctx context.Context, req Request) ([]byte, error)
	// Bulk sends Body as-is; it must already be newline delimited JSON.
	Bulk(ctx context.Context, req Request) ([]byte, error)
}

// Searcher runs search and count requests.
type Searcher interface {
	Search(ctx context.Context, req Request) ([]byte, error)
	Count(ctx context.Context, req Request) ([]byte, error)
}

// IndexManager manages indices and their mappings.
type IndexManager interface {
	IndexExists(ctx context.Context, req Request) (bool, error)
	CreateIndex(ctx context.Context, req Request) ([]byte, error)
	DeleteIndex(ctx context.Context, req Request) ([]byte, error)
	GetMapping(ctx context.Context, req Request) ([]byte, error)
	PutMapping(ctx context.Context, req Request) ([]byte, error)
}

// AliasManager manages index aliases. Name carries the alias.
type AliasManager interface {
	PutAlias(ctx context.Context, req Request) ([]byte, error)
	DeleteAlias(ctx context.Context, req Request) ([]byte, error)
	GetAlias(ctx context.Context, req Request) ([]byte, error)
	AliasExists(ctx context.Context, req Request) (bool, error)
}

// TemplateManager manages index templates. Name carries the template.
type TemplateManager interface {
	PutTemplate(ctx context.Context, req Request) ([]byte, error)
	DeleteTemplate(ctx context.Context, req Request) ([]byte, error)
	GetTemplate(ctx context.Context, req Request) ([]byte, error)
}

// Request is the parameter structure shared by all engine operations.
// Zero values mean "not set"; From and Size are pointers so that 0 stays
// distinguishable from absent.
type Request struct {
	Index string
	Type  string
	ID    string
	// Name is the alias or template name.
	Name string

	From *int
	Size *int
	// Sort holds "field:direction" pairs for URL sorting.
	Sort []string
	// Query is a query-string (q=) expression.
	Query string
	// Fields restricts the returned source fields.
	Fields []string

	// Body is the encoded request body.
	Body []byte
}

// Int returns a pointer to n, for Request.From and Request.Size.
func Int(n int) *int { return &n }
