package esdex

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// Sentinel errors. Use errors.Is() to check.
var (
	// ErrNotConfigured signals an operation issued before Connection.Configure.
	ErrNotConfigured = errors.New("esdex: not configured")
	// ErrMissingParameter signals a required chained value (type, index, id) that was never set.
	ErrMissingParameter = errors.New("esdex: missing parameter")
	// ErrUnsupportedShape signals an argument of the wrong shape, e.g. a slice passed to Post.
	ErrUnsupportedShape = errors.New("esdex: unsupported shape")
	// ErrEngine matches every *EngineError.
	ErrEngine = errors.New("esdex: engine error")
)

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, what)
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedShape, fmt.Sprintf(format, args...))
}

// EngineError is the uniform error envelope: whatever the engine or the
// transport reported is available as Err, the envelope's "error" property.
type EngineError struct {
	Op string
	// Status is the HTTP status, 0 when the engine never answered.
	Status int
	// Err is the engine reported error: an object, a string or a Go error.
	Err any
	// Payload is the full envelope; Payload["error"] is always set.
	Payload map[string]any

	cause error
}

func (e *EngineError) Error() string {
	msg := describe(e.Err)
	switch {
	case e.Op != "" && e.Status != 0:
		return fmt.Sprintf("esdex: %s failed (status %d): %s", e.Op, e.Status, msg)
	case e.Op != "":
		return fmt.Sprintf("esdex: %s failed: %s", e.Op, msg)
	default:
		return "esdex: engine error: " + msg
	}
}

func (e *EngineError) Unwrap() error { return e.cause }

// Is makes every EngineError match ErrEngine.
func (e *EngineError) Is(target error) bool { return target == ErrEngine }

// Reason returns the engine's "reason" text when Err is a structured error.
func (e *EngineError) Reason() string {
	if m, ok := e.Err.(map[string]any); ok {
		if r, ok := m["reason"].(string); ok {
			return r
		}
	}
	return describe(e.Err)
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "unknown error"
	case string:
		return x
	case error:
		return x.Error()
	case map[string]any:
		t, _ := x["type"].(string)
		r, _ := x["reason"].(string)
		switch {
		case t != "" && r != "":
			return t + ": " + r
		case r != "":
			return r
		case t != "":
			return t
		}
	}
	return fmt.Sprint(v)
}

// AdaptError turns any raw error value into the uniform envelope.
// Values that already expose an "error" property keep their payload, an
// *EngineError is returned unchanged, everything else is wrapped as
// {error: raw}. AdaptError(nil) is nil.
func AdaptError(raw any) *EngineError {
	switch x := raw.(type) {
	case nil:
		return nil
	case *EngineError:
		return x
	case map[string]any:
		if ev, ok := x["error"]; ok && ev != nil {
			return &EngineError{Err: ev, Payload: x}
		}
		return wrapped(raw, nil)
	case Document:
		return AdaptError(map[string]any(x))
	case error:
		var ee *EngineError
		if errors.As(x, &ee) {
			return ee
		}
		var re *engine.Error
		if errors.As(x, &re) {
			return fromEngine(re)
		}
		out := wrapped(x, x)
		out.Op = opOf(x)
		return out
	}
	if v := reflect.ValueOf(raw); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return wrapped(raw, nil)
}

func fromEngine(re *engine.Error) *EngineError {
	payload := re.Payload()
	if ev, ok := payload["error"]; ok && ev != nil {
		return &EngineError{Op: re.Op, Status: re.Status, Err: ev, Payload: payload, cause: re}
	}
	var inner any = payload
	if payload == nil {
		inner = string(re.Body)
		if len(re.Body) == 0 {
			inner = re.Error()
		}
	}
	return &EngineError{
		Op:      re.Op,
		Status:  re.Status,
		Err:     inner,
		Payload: map[string]any{"error": inner},
		cause:   re,
	}
}

func wrapped(raw any, cause error) *EngineError {
	return &EngineError{Err: raw, Payload: map[string]any{"error": raw}, cause: cause}
}

// opOf recovers the op name from errors built by engine.NewUnavailable.
func opOf(err error) string {
	if !errors.Is(err, engine.ErrUnavailable) {
		return ""
	}
	msg := err.Error()
	for i := 0; i < len(msg); i++ {
		if msg[i] == ':' {
			return msg[:i]
		}
	}
	return ""
}
