package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esdex"
)

var (
	// errBadRequest marks request decoding failures.
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

// errorHandler tries to render err. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	engineErrorHandler,
	sentinelHandler(esdex.ErrNotConfigured, http.StatusServiceUnavailable),
	sentinelHandler(esdex.ErrMissingParameter, http.StatusBadRequest),
	sentinelHandler(esdex.ErrUnsupportedShape, http.StatusBadRequest),
	sentinelHandler(errBadRequest, http.StatusBadRequest),
	sentinelHandler(errTooLarge, http.StatusRequestEntityTooLarge),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the gateway error body {"error": ...}.
func writeError(w http.ResponseWriter, status int, reason any) {
	writeJSON(w, status, map[string]any{"error": reason})
}

func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, err.Error())
		return true
	}
}

// engineErrorHandler passes the engine's status and error object through.
// Failures without a status (transport, unreadable response) become 502.
func engineErrorHandler(w http.ResponseWriter, err error) bool {
	var ee *esdex.EngineError
	if !errors.As(err, &ee) {
		return false
	}
	status := ee.Status
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	reason := ee.Err
	if e, ok := reason.(error); ok {
		reason = e.Error()
	}
	writeError(w, status, reason)
	return true
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log(r)
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
