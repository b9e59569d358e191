package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable wraps transport failures (no response from the engine).
var ErrUnavailable = errors.New("engine: unavailable")

// Op constants name engine operations for error context and metrics.
const (
	OpPing           = "ping"
	OpGet            = "get"
	OpMultiGet       = "mget"
	OpCreate         = "create"
	OpUpdate         = "update"
	OpDelete         = "delete"
	OpDeleteByQuery  = "delete_by_query"
	OpBulk           = "bulk"
	OpSearch         = "search"
	OpCount          = "count"
	OpIndexExists    = "indices.exists"
	OpCreateIndex    = "indices.create"
	OpDeleteIndex    = "indices.delete"
	OpGetMapping     = "indices.get_mapping"
	OpPutMapping     = "indices.put_mapping"
	OpPutAlias       = "indices.put_alias"
	OpDeleteAlias    = "indices.delete_alias"
	OpGetAlias       = "indices.get_alias"
	OpAliasExists    = "indices.exists_alias"
	OpPutTemplate    = "indices.put_template"
	OpDeleteTemplate = "indices.delete_template"
	OpGetTemplate    = "indices.get_template"
)

// Error is an error response returned by the engine.
type Error struct {
	Op     string
	Status int
	// Body is the raw response body, usually a JSON object with an "error" key.
	Body []byte
}

func (e *Error) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

// Payload decodes Body as a JSON object. It returns nil if Body is not one.
func (e *Error) Payload() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(e.Body, &m); err != nil {
		return nil
	}
	return m
}

// NewUnavailable wraps a transport failure for op.
func NewUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
