package esdex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Document is a flat JSON object as stored in the engine.
type Document map[string]any

// ID returns the document "id" field as a string, or "" if absent.
func (d Document) ID() string {
	return idString(d["id"])
}

// Envelope is the uniform list result: Results holds the items and Total
// the engine reported total (or len(Results) where the engine has none).
type Envelope[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

// Results is the envelope returned by document queries.
type Results = Envelope[Document]

func emptyResults() Results {
	return Results{Results: []Document{}, Total: 0}
}

// hit is one raw engine document: a search hit, an mget entry or a get response.
type hit map[string]any

// adaptDocument flattens a raw hit into a Document. Source fields are
// copied as-is and the id comes from the payload "id" if present, else from
// the engine _id, always as a string. A value without a fields/_source
// payload is returned unchanged.
func adaptDocument(raw hit) Document {
	payload := sourceOf(raw)
	if payload == nil {
		return Document(raw)
	}
	doc := make(Document, len(payload)+1)
	maps.Copy(doc, payload)

	id := idString(payload["id"])
	if id == "" {
		if v, ok := raw["id"]; ok {
			id = idString(v)
		} else {
			id = idString(raw["_id"])
		}
	}
	doc["id"] = id
	return doc
}

func sourceOf(raw hit) map[string]any {
	if f, ok := raw["fields"].(map[string]any); ok {
		return f
	}
	if s, ok := raw["_source"].(map[string]any); ok {
		return s
	}
	return nil
}

func adaptHits(hits []hit) []Document {
	out := make([]Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, adaptDocument(h))
	}
	return out
}

func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// total accepts both the legacy numeric hits.total and the {value, relation} object.
type total int

func (t *total) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("decode total: %w", err)
		}
		*t = total(obj.Value)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode total: %w", err)
	}
	*t = total(n)
	return nil
}

type searchResponse struct {
	Hits struct {
		Total total `json:"total"`
		Hits  []hit `json:"hits"`
	} `json:"hits"`
}

func decodeSearch(raw []byte) (Results, error) {
	var resp searchResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return Results{}, fmt.Errorf("decode search response: %w", err)
	}
	return Results{Results: adaptHits(resp.Hits.Hits), Total: int(resp.Hits.Total)}, nil
}

func decodeMultiGet(raw []byte) (Results, error) {
	var resp struct {
		Docs []hit `json:"docs"`
	}
	if err := decodeJSON(raw, &resp); err != nil {
		return Results{}, fmt.Errorf("decode mget response: %w", err)
	}
	docs := adaptHits(resp.Docs)
	return Results{Results: docs, Total: len(docs)}, nil
}

func decodeDocument(raw []byte) (Document, error) {
	var h hit
	if err := decodeJSON(raw, &h); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return adaptDocument(h), nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := decodeJSON(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return m, nil
}

// decodeJSON decodes engine payloads keeping numbers as json.Number, so
// integers above 2^53 survive a read-modify-write.
func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// firstKey returns the first key of a JSON object in document order.
func firstKey(raw []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	key, ok := tok.(string)
	return key, ok
}
