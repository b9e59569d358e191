package elastic

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// Get fetches one document by id.
func (s *Store) Get(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpGet, esapi.GetRequest{
		Index:        req.Index,
		DocumentType: req.Type,
		DocumentID:   req.ID,
	})
}

// MultiGet fetches several documents; Body carries {"ids": [...]}.
func (s *Store) MultiGet(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpMultiGet, esapi.MgetRequest{
		Index:        req.Index,
		DocumentType: req.Type,
		Body:         bodyReader(req.Body),
	})
}

// Create stores a new document. Without an id the engine assigns one.
func (s *Store) Create(ctx context.Context, req engine.Request) ([]byte, error) {
	if req.ID == "" {
		return s.do(ctx, engine.OpCreate, esapi.IndexRequest{
			Index:        req.Index,
			DocumentType: req.Type,
			Body:         bodyReader(req.Body),
			OpType:       "create",
			Refresh:      "true",
		})
	}
	return s.do(ctx, engine.OpCreate, esapi.CreateRequest{
		Index:        req.Index,
		DocumentType: req.Type,
		DocumentID:   req.ID,
		Body:         bodyReader(req.Body),
		Refresh:      "true",
	})
}

// Update applies a partial document update; Body carries {"doc": {...}}.
func (s *Store) Update(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpUpdate, esapi.UpdateRequest{
		Index:        req.Index,
		DocumentType: req.Type,
		DocumentID:   req.ID,
		Body:         bodyReader(req.Body),
		Refresh:      "true",
	})
}

// Delete removes one document. A missing document answers 404 with
// result "not_found", which is returned as a normal response.
func (s *Store) Delete(ctx context.Context, req engine.Request) ([]byte, error) {
	body, err := s.do(ctx, engine.OpDelete, esapi.DeleteRequest{
		Index:        req.Index,
		DocumentType: req.Type,
		DocumentID:   req.ID,
		Refresh:      "true",
	}, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if hasErrorPayload(body) {
		return nil, &engine.Error{Op: engine.OpDelete, Status: http.StatusNotFound, Body: body}
	}
	return body, nil
}

// DeleteByQuery removes every document matching Body.
func (s *Store) DeleteByQuery(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpDeleteByQuery, esapi.DeleteByQueryRequest{
		Index:        one(req.Index),
		DocumentType: one(req.Type),
		Body:         bodyReader(req.Body),
		Refresh:      boolPtr(true),
	})
}

// Bulk sends a newline delimited action body.
func (s *Store) Bulk(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpBulk, esapi.BulkRequest{
		Index: req.Index,
		Body:  bodyReader(req.Body),
	})
}

// hasErrorPayload reports whether body is a JSON object with an "error" key,
// which distinguishes a missing index from a missing document.
func hasErrorPayload(body []byte) bool {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return len(probe.Error) > 0
}
