package esdex

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// TimestampLayout is the ISO-8601 layout of createdAt and updatedAt (UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	opPost = "post"
	opPut  = "put"

	fieldID        = "id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// PostBuilder creates one document.
type PostBuilder struct {
	c        *Client
	doc      Document
	err      error
	typeName string
	id       string
}

// Post starts a document create. doc is a map or a JSON encodable struct;
// slices and arrays are rejected, one document per call.
func (c *Client) Post(doc any) PostBuilder {
	d, err := toDocument(doc)
	return PostBuilder{c: c, doc: d, err: err}
}

// OfType sets the document type. Required.
func (b PostBuilder) OfType(typeName string) PostBuilder {
	b.typeName = typeName
	return b
}

// WithID sets the document id. Without it the document "id" field is used,
// and without that the engine assigns one.
func (b PostBuilder) WithID(id string) PostBuilder {
	b.id = id
	return b
}

// Into creates the document in index and returns it as stored.
func (b PostBuilder) Into(ctx context.Context, index string) (_ Document, err error) {
	start := b.c.now()
	defer func() { b.c.obs.observe(opPost, start, err) }()

	if b.err != nil {
		return nil, b.err
	}
	if b.typeName == "" {
		return nil, missing("type")
	}

	doc := maps.Clone(b.doc)
	id := b.id
	if id != "" {
		doc[fieldID] = id
	} else {
		id = doc.ID()
	}
	if isAbsent(doc, fieldCreatedAt) {
		doc[fieldCreatedAt] = b.c.timestamp()
	}
	body, err := encode(doc)
	if err != nil {
		return nil, err
	}

	req := Request{Index: index, Type: b.typeName, ID: id, Body: body}
	createdID, err := run(ctx, b.c, engine.OpCreate, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Create(ctx, req)
	}, decodeWriteID)
	if err != nil {
		return nil, err
	}
	if createdID == "" {
		createdID = id
	}
	return b.c.Get(createdID).OfType(b.typeName).From(ctx, index)
}

// PutBuilder updates one existing document.
type PutBuilder struct {
	c        *Client
	doc      Document
	err      error
	typeName string
	id       string
}

// Put starts a document update. Fields the caller sets replace stored
// ones; fields the caller leaves out keep their stored values.
func (c *Client) Put(doc any) PutBuilder {
	d, err := toDocument(doc)
	return PutBuilder{c: c, doc: d, err: err}
}

// OfType sets the document type. Required.
func (b PutBuilder) OfType(typeName string) PutBuilder {
	b.typeName = typeName
	return b
}

// WithID sets the id of the document to update. Required unless the
// document carries an "id" field.
func (b PutBuilder) WithID(id string) PutBuilder {
	b.id = id
	return b
}

// Into merges the document with the stored one in index, writes it and
// returns it as stored.
func (b PutBuilder) Into(ctx context.Context, index string) (_ Document, err error) {
	start := b.c.now()
	defer func() { b.c.obs.observe(opPut, start, err) }()

	if b.err != nil {
		return nil, b.err
	}
	if b.typeName == "" {
		return nil, missing("type")
	}
	doc := maps.Clone(b.doc)
	id := b.id
	if id != "" {
		doc[fieldID] = id
	} else {
		id = doc.ID()
	}
	if id == "" {
		return nil, missing("id")
	}

	existing, err := b.c.Get(id).OfType(b.typeName).From(ctx, index)
	if err != nil {
		return nil, err
	}
	for k, v := range existing {
		if _, set := doc[k]; !set {
			doc[k] = v
		}
	}
	doc[fieldUpdatedAt] = b.c.timestamp()

	body, err := encode(map[string]any{"doc": doc})
	if err != nil {
		return nil, err
	}
	req := Request{Index: index, Type: b.typeName, ID: id, Body: body}
	updatedID, err := run(ctx, b.c, engine.OpUpdate, func(ctx context.Context, e Engine) ([]byte, error) {
		return e.Update(ctx, req)
	}, decodeWriteID)
	if err != nil {
		return nil, err
	}
	if updatedID == "" {
		updatedID = id
	}
	return b.c.Get(updatedID).OfType(b.typeName).From(ctx, index)
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(TimestampLayout)
}

func isAbsent(doc Document, key string) bool {
	v, ok := doc[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

// toDocument normalizes a write argument into a fresh Document.
func toDocument(v any) (Document, error) {
	switch x := v.(type) {
	case nil:
		return nil, missing("document")
	case Document:
		return cloneDocument(x), nil
	case map[string]any:
		return cloneDocument(x), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, missing("document")
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return nil, unsupported("document must be a single object, got %s", rv.Kind())
	case reflect.Struct, reflect.Map:
	default:
		return nil, unsupported("document must be an object, got %s", rv.Kind())
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, unsupported("encode document: %v", err)
	}
	var doc Document
	if err := decodeJSON(b, &doc); err != nil {
		return nil, unsupported("document is not a JSON object: %v", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func cloneDocument(m map[string]any) Document {
	if m == nil {
		return Document{}
	}
	return maps.Clone(Document(m))
}

// decodeWriteID extracts the _id of a create or update response.
func decodeWriteID(raw []byte) (string, error) {
	var resp struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode write response: %w", err)
	}
	return resp.ID, nil
}
