package elastic

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// IndexExists checks if an index exists.
func (s *Store) IndexExists(ctx context.Context, req engine.Request) (bool, error) {
	return s.exists(ctx, engine.OpIndexExists, esapi.IndicesExistsRequest{
		Index: one(req.Index),
	})
}

// CreateIndex creates an index, with optional settings/mappings in Body.
func (s *Store) CreateIndex(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpCreateIndex, esapi.IndicesCreateRequest{
		Index: req.Index,
		Body:  bodyReader(req.Body),
	})
}

// DeleteIndex deletes an index.
func (s *Store) DeleteIndex(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpDeleteIndex, esapi.IndicesDeleteRequest{
		Index: one(req.Index),
	})
}

// GetMapping returns the mappings keyed by concrete index, then by type.
func (s *Store) GetMapping(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpGetMapping, esapi.IndicesGetMappingRequest{
		Index:           one(req.Index),
		DocumentType:    one(req.Type),
		IncludeTypeName: boolPtr(true),
	})
}

// PutMapping adds or updates the mapping of req.Type.
func (s *Store) PutMapping(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpPutMapping, esapi.IndicesPutMappingRequest{
		Index:           one(req.Index),
		DocumentType:    req.Type,
		Body:            bodyReader(req.Body),
		IncludeTypeName: boolPtr(true),
	})
}

// PutAlias points alias req.Name at req.Index.
func (s *Store) PutAlias(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpPutAlias, esapi.IndicesPutAliasRequest{
		Index: one(req.Index),
		Name:  req.Name,
	})
}

// DeleteAlias removes alias req.Name from req.Index.
func (s *Store) DeleteAlias(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpDeleteAlias, esapi.IndicesDeleteAliasRequest{
		Index: one(req.Index),
		Name:  []string{req.Name},
	})
}

// GetAlias returns the indices alias req.Name points to, keyed by index.
func (s *Store) GetAlias(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpGetAlias, esapi.IndicesGetAliasRequest{
		Index: one(req.Index),
		Name:  []string{req.Name},
	})
}

// AliasExists checks if alias req.Name exists.
func (s *Store) AliasExists(ctx context.Context, req engine.Request) (bool, error) {
	return s.exists(ctx, engine.OpAliasExists, esapi.IndicesExistsAliasRequest{
		Index: one(req.Index),
		Name:  []string{req.Name},
	})
}

// PutTemplate stores index template req.Name.
func (s *Store) PutTemplate(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpPutTemplate, esapi.IndicesPutTemplateRequest{
		Name: req.Name,
		Body: bodyReader(req.Body),
	})
}

// DeleteTemplate deletes index template req.Name.
func (s *Store) DeleteTemplate(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpDeleteTemplate, esapi.IndicesDeleteTemplateRequest{
		Name: req.Name,
	})
}

// GetTemplate returns index template req.Name.
func (s *Store) GetTemplate(ctx context.Context, req engine.Request) ([]byte, error) {
	return s.do(ctx, engine.OpGetTemplate, esapi.IndicesGetTemplateRequest{
		Name: []string{req.Name},
	})
}
