package elastic

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// Search runs a query-string (req.Query) and/or body (req.Body) search.
func (s *Store) Search(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpSearch, esapi.SearchRequest{
		Index:          one(req.Index),
		DocumentType:   one(req.Type),
		Query:          req.Query,
		Body:           bodyReader(req.Body),
		From:           req.From,
		Size:           req.Size,
		Sort:           req.Sort,
		SourceIncludes: req.Fields,
	})
}

// Count returns the number of documents matching the request.
func (s *Store) Count(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpCount, esapi.CountRequest{
		Index:        one(req.Index),
		DocumentType: one(req.Type),
		Query:        req.Query,
		Body:         bodyReader(req.Body),
	})
}
