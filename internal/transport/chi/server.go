// Package chi exposes the esdex builders over a REST gateway.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esdex"
)

const defaultMaxBodyBytes = 10 << 20

// Server serves the gateway routes on top of an esdex client.
type Server struct {
	client       *esdex.Client
	logger       *zap.Logger
	metrics      http.Handler
	maxBodyBytes int64
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
}

// WithMaxBodyBytes caps request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(client *esdex.Client, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		client:       client,
		logger:       logger,
		metrics:      promhttp.Handler(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes registers every gateway route on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Post("/_bulk", s.Bulk)
	r.Get("/_alias/{name}", s.GetAlias)

	r.Put("/{index}", s.CreateIndex)
	r.Delete("/{index}", s.DestroyIndex)
	r.Get("/{index}/_search", s.SearchString)
	r.Post("/{index}/_search", s.SearchStructured)
	r.Post("/{index}/_count", s.Count)
	r.Post("/{index}/_delete_by_query", s.DeleteByQuery)
	r.Get("/{index}/_mapping", s.GetMapping)

	r.Post("/{index}/{type}", s.PostDocument)
	r.Post("/{index}/{type}/_mget", s.MultiGet)
	r.Get("/{index}/{type}/_all", s.GetAll)
	r.Get("/{index}/{type}/{id}", s.GetDocument)
	r.Put("/{index}/{type}/{id}", s.PutDocument)
	r.Delete("/{index}/{type}/{id}", s.DeleteDocument)
}

// Handler returns a router with only the gateway routes.
func (s *Server) Handler() http.Handler {
	r := gochi.NewRouter()
	s.Routes(r)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Ping(r.Context()); err != nil {
		s.log(r).Warn("engine health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"checks": map[string]string{"engine": "error"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"checks": map[string]string{"engine": "ok"},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

// GetDocument handles GET /{index}/{type}/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.client.Get(gochi.URLParam(r, "id")).
		OfType(gochi.URLParam(r, "type")).
		From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type multiGetRequest struct {
	IDs []string `json:"ids"`
}

// MultiGet handles POST /{index}/{type}/_mget.
func (s *Server) MultiGet(w http.ResponseWriter, r *http.Request) {
	var req multiGetRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	res, err := s.client.GetMany(req.IDs...).
		OfType(gochi.URLParam(r, "type")).
		From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PostDocument handles POST /{index}/{type}; ?id= picks the document id.
func (s *Server) PostDocument(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := s.decode(w, r, &doc); err != nil {
		s.handleError(w, r, err)
		return
	}
	b := s.client.Post(doc).OfType(gochi.URLParam(r, "type"))
	if id := r.URL.Query().Get("id"); id != "" {
		b = b.WithID(id)
	}
	created, err := b.Into(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PutDocument handles PUT /{index}/{type}/{id}.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := s.decode(w, r, &doc); err != nil {
		s.handleError(w, r, err)
		return
	}
	updated, err := s.client.Put(doc).
		OfType(gochi.URLParam(r, "type")).
		WithID(gochi.URLParam(r, "id")).
		Into(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDocument handles DELETE /{index}/{type}/{id}. A miss is a 200
// with an empty result, not an error.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	res, err := s.client.Delete(gochi.URLParam(r, "id")).
		OfType(gochi.URLParam(r, "type")).
		From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type typedQuery struct {
	Type  string `json:"type"`
	Query any    `json:"query"`
}

// DeleteByQuery handles POST /{index}/_delete_by_query.
func (s *Server) DeleteByQuery(w http.ResponseWriter, r *http.Request) {
	var req typedQuery
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if _, ok := req.Query.(string); ok {
		s.handleError(w, r, fmt.Errorf("%w: query must be an object", errBadRequest))
		return
	}
	res, err := s.client.Delete(req.Query).OfType(req.Type).From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchString handles GET /{index}/_search?q=&type=&from=&size=&sort=.
func (s *Server) SearchString(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b := s.client.Query(q.Get("q")).OfType(q.Get("type"))

	var err error
	if b, err = paginate(b, q.Get("from"), q.Get("size")); err != nil {
		s.handleError(w, r, err)
		return
	}
	for field, dir := range sortPairs(q.Get("sort")) {
		b = b.SortBy(field, dir)
	}

	res, err := b.From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type sortRequest struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type searchRequest struct {
	Type   string        `json:"type"`
	Query  any           `json:"query"`
	Filter any           `json:"filter"`
	Sort   []sortRequest `json:"sort"`
	From   *int          `json:"from"`
	Size   *int          `json:"size"`
}

// SearchStructured handles POST /{index}/_search. A string query is sent as
// a query-string search, anything else as a structured query.
func (s *Server) SearchStructured(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	b := s.client.Query(req.Query).OfType(req.Type)
	if req.Filter != nil {
		b = b.FilterBy(req.Filter)
	}
	for _, so := range req.Sort {
		b = b.SortBy(so.Field, so.Order)
	}
	if req.From != nil {
		b = b.WithOffset(*req.From)
	}
	if req.Size != nil {
		b = b.WithSize(*req.Size)
	}

	res, err := b.From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetAll handles GET /{index}/{type}/_all?from=&size=&fields=&sort=.
func (s *Server) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b := s.client.GetAll(gochi.URLParam(r, "type"))
	if v := q.Get("from"); v != "" {
		n, err := parseInt("from", v)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		b = b.WithOffset(n)
	}
	if v := q.Get("size"); v != "" {
		n, err := parseInt("size", v)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		b = b.Size(n)
	}
	if v := q.Get("fields"); v != "" {
		b = b.Fields(strings.Split(v, ",")...)
	}
	if v := q.Get("sort"); v != "" {
		b = b.SortBy(v)
	}

	res, err := b.From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Count handles POST /{index}/_count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	var req typedQuery
	if err := s.decode(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	b := s.client.Count(req.Type)
	if req.Query != nil {
		b = b.ThatMatch(req.Query)
	}
	n, err := b.From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// Bulk handles POST /_bulk with a JSON array of action and source lines.
func (s *Server) Bulk(w http.ResponseWriter, r *http.Request) {
	var actions []any
	if err := s.decode(w, r, &actions); err != nil {
		s.handleError(w, r, err)
		return
	}
	res, err := s.client.Bulk(r.Context(), actions)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetMapping handles GET /{index}/_mapping?type=.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := s.client.GetMapping().
		OfType(r.URL.Query().Get("type")).
		From(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetAlias handles GET /_alias/{name}.
func (s *Server) GetAlias(w http.ResponseWriter, r *http.Request) {
	name := gochi.URLParam(r, "name")
	index, found, err := s.client.GetAlias(r.Context(), name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "alias "+name+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"alias": name, "index": index})
}

// CreateIndex handles PUT /{index}; the optional body carries settings and mappings.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &body); err != nil {
			s.handleError(w, r, err)
			return
		}
	}
	var extra []any
	if len(body) > 0 {
		extra = append(extra, body)
	}
	ack, err := s.client.CreateIndex(r.Context(), gochi.URLParam(r, "index"), extra...)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// DestroyIndex handles DELETE /{index}.
func (s *Server) DestroyIndex(w http.ResponseWriter, r *http.Request) {
	ack, err := s.client.DestroyIndex(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// decode reads a JSON body into v. Numbers stay json.Number so ids and
// counters above 2^53 reach the engine unchanged.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func (s *Server) log(r *http.Request) *zap.Logger {
	return requestLogger(r, s.logger)
}

func paginate(b esdex.SearchBuilder, from, size string) (esdex.SearchBuilder, error) {
	if from != "" {
		n, err := parseInt("from", from)
		if err != nil {
			return b, err
		}
		b = b.WithOffset(n)
	}
	if size != "" {
		n, err := parseInt("size", size)
		if err != nil {
			return b, err
		}
		b = b.WithSize(n)
	}
	return b, nil
}

func parseInt(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

// sortPairs yields field/direction pairs of "f1:asc,f2" in order.
func sortPairs(sort string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for part := range strings.SplitSeq(sort, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			field, dir, _ := strings.Cut(part, ":")
			if !yield(field, dir) {
				return
			}
		}
	}
}
