package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/esdex"
	"github.com/kailas-cloud/esdex/internal/engine"
)

type reply struct {
	status int
	body   string
	err    error
}

type call struct {
	op  string
	req esdex.Request
}

// stubEngine answers canned replies keyed by operation. Operations the
// gateway is not expected to reach fall through to the nil embedded
// interface and panic.
type stubEngine struct {
	esdex.Engine

	mu      sync.Mutex
	calls   []call
	replies map[string]reply
}

func newStub(replies map[string]reply) *stubEngine {
	return &stubEngine{replies: replies}
}

func (s *stubEngine) answer(op string, req esdex.Request) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{op: op, req: req})
	s.mu.Unlock()

	r, ok := s.replies[op]
	switch {
	case !ok:
		return []byte(`{}`), nil
	case r.err != nil:
		return nil, r.err
	case r.status >= http.StatusBadRequest:
		return nil, &engine.Error{Op: op, Status: r.status, Body: []byte(r.body)}
	}
	return []byte(r.body), nil
}

func (s *stubEngine) only(t *testing.T, op string) esdex.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []esdex.Request
	for _, c := range s.calls {
		if c.op == op {
			found = append(found, c.req)
		}
	}
	require.Len(t, found, 1, "calls of %s", op)
	return found[0]
}

func (s *stubEngine) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubEngine) Ping(context.Context) error {
	_, err := s.answer(engine.OpPing, esdex.Request{})
	return err
}

func (s *stubEngine) Get(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpGet, req)
}

func (s *stubEngine) MultiGet(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpMultiGet, req)
}

func (s *stubEngine) Create(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpCreate, req)
}

func (s *stubEngine) Update(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpUpdate, req)
}

func (s *stubEngine) Delete(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpDelete, req)
}

func (s *stubEngine) DeleteByQuery(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpDeleteByQuery, req)
}

func (s *stubEngine) Bulk(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpBulk, req)
}

func (s *stubEngine) Search(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpSearch, req)
}

func (s *stubEngine) Count(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpCount, req)
}

func (s *stubEngine) CreateIndex(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpCreateIndex, req)
}

func (s *stubEngine) DeleteIndex(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpDeleteIndex, req)
}

func (s *stubEngine) GetMapping(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpGetMapping, req)
}

func (s *stubEngine) GetAlias(_ context.Context, req esdex.Request) ([]byte, error) {
	return s.answer(engine.OpGetAlias, req)
}

func newTestServer(t *testing.T, e esdex.Engine) http.Handler {
	t.Helper()
	conn := esdex.NewConnection(nil)
	if e != nil {
		conn.SetHandle(e)
	}
	client, err := esdex.New(conn)
	require.NoError(t, err)
	return NewServer(client, nil, WithGatherer(prometheus.NewRegistry())).Handler()
}

func serve(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if bytes.HasPrefix(bytes.TrimSpace(rr.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestGetDocument(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpGet: {body: `{"_id":"42","found":true,"_source":{"title":"hi"}}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodGet, "/blog/post/42", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"id": "42", "title": "hi"}, out)

	req := e.only(t, engine.OpGet)
	require.Equal(t, "blog", req.Index)
	require.Equal(t, "post", req.Type)
	require.Equal(t, "42", req.ID)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		reply  reply
		status int
	}{
		{"engine status passes through", reply{status: http.StatusNotFound, body: `{"error":{"type":"index_not_found_exception"},"status":404}`}, http.StatusNotFound},
		{"engine without error key", reply{status: http.StatusConflict, body: `{"found":false}`}, http.StatusConflict},
		{"transport failure", reply{err: engine.NewUnavailable(engine.OpGet, errors.New("connection refused"))}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, newStub(map[string]reply{engine.OpGet: tt.reply}))
			rr, out := serve(t, h, http.MethodGet, "/blog/post/1", "")
			require.Equal(t, tt.status, rr.Code)
			require.NotNil(t, out["error"])
		})
	}
}

func TestNotConfigured(t *testing.T) {
	h := newTestServer(t, nil)
	rr, out := serve(t, h, http.MethodGet, "/blog/post/1", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, out["error"], "not configured")
}

func TestMultiGet(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpMultiGet: {body: `{"docs":[{"_id":"1","found":true,"_source":{"a":1}},{"_id":"2","found":true,"_source":{"a":2}}]}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/blog/post/_mget", `{"ids":["1","2","1"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 2, out["total"])
	require.JSONEq(t, `{"ids":["1","2"]}`, string(e.only(t, engine.OpMultiGet).Body))
}

func TestMultiGet_NoIDs(t *testing.T) {
	e := newStub(nil)
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/blog/post/_mget", `{"ids":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"results": []any{}, "total": float64(0)}, out)
	require.Zero(t, e.count())
}

func TestPostDocument(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpCreate: {body: `{"_id":"7","result":"created"}`},
		engine.OpGet:    {body: `{"_id":"7","found":true,"_source":{"title":"hi","id":"7"}}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/blog/post?id=7", `{"title":"hi","views":9007199254740993}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "7", out["id"])

	created := e.only(t, engine.OpCreate)
	require.Equal(t, "7", created.ID)
	require.Contains(t, string(created.Body), `"createdAt"`)
	require.Contains(t, string(created.Body), `9007199254740993`)
	require.Equal(t, "7", e.only(t, engine.OpGet).ID)
}

func TestPostDocument_BadBody(t *testing.T) {
	e := newStub(nil)
	h := newTestServer(t, e)

	for _, body := range []string{`[{"a":1}]`, `{`, ``} {
		rr, _ := serve(t, h, http.MethodPost, "/blog/post", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "body %q", body)
	}
	require.Zero(t, e.count())
}

func TestPostDocument_BodyTooLarge(t *testing.T) {
	e := newStub(nil)
	conn := esdex.NewConnection(nil)
	conn.SetHandle(e)
	client, err := esdex.New(conn)
	require.NoError(t, err)
	h := NewServer(client, nil, WithGatherer(prometheus.NewRegistry()), WithMaxBodyBytes(16)).Handler()

	rr, out := serve(t, h, http.MethodPost, "/blog/post", `{"title":"a title longer than the limit"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, out["error"], "request body too large")
	require.Zero(t, e.count())
}

func TestPutDocument(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpGet: {body: `{"_id":"7","found":true,"_source":{"a":1,"b":2}}`},
	})
	h := newTestServer(t, e)

	rr, _ := serve(t, h, http.MethodPut, "/blog/post/7", `{"b":3}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var sent struct {
		Doc map[string]any `json:"doc"`
	}
	upd := e.only(t, engine.OpUpdate)
	require.Equal(t, "7", upd.ID)
	require.NoError(t, json.Unmarshal(upd.Body, &sent))
	require.EqualValues(t, 1, sent.Doc["a"])
	require.EqualValues(t, 3, sent.Doc["b"])
	require.NotEmpty(t, sent.Doc["updatedAt"])
}

func TestDeleteDocument(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		total float64
	}{
		{"deleted", `{"_id":"1","result":"deleted"}`, 1},
		{"missing", `{"_id":"1","result":"not_found"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, newStub(map[string]reply{engine.OpDelete: {body: tt.body}}))
			rr, out := serve(t, h, http.MethodDelete, "/blog/post/1", "")
			require.Equal(t, http.StatusOK, rr.Code)
			require.Equal(t, tt.total, out["total"])
		})
	}
}

func TestDeleteByQuery(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpDeleteByQuery: {body: `{"deleted":2,"_indices":{"blog":{"_shards":{"total":5,"successful":5,"failed":0}}}}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/blog/_delete_by_query", `{"type":"post","query":{"term":{"draft":true}}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 5, out["shards"].(map[string]any)["total"])

	req := e.only(t, engine.OpDeleteByQuery)
	require.Equal(t, "post", req.Type)
	require.JSONEq(t, `{"query":{"term":{"draft":true}}}`, string(req.Body))
}

func TestDeleteByQuery_Rejected(t *testing.T) {
	e := newStub(nil)
	h := newTestServer(t, e)

	for _, body := range []string{`{"query":"title:x"}`, `{"type":"post"}`} {
		rr, _ := serve(t, h, http.MethodPost, "/blog/_delete_by_query", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "body %s", body)
	}
	require.Zero(t, e.count())
}

const searchHits = `{"hits":{"total":{"value":12,"relation":"eq"},"hits":[{"_id":"1","_source":{"title":"x"}}]}}`

func TestSearchString(t *testing.T) {
	e := newStub(map[string]reply{engine.OpSearch: {body: searchHits}})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodGet, "/blog/_search?q=title:x&type=post&from=5&size=10&sort=createdAt:desc,title", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 12, out["total"])
	require.Len(t, out["results"], 1)

	req := e.only(t, engine.OpSearch)
	require.Equal(t, "title:x", req.Query)
	require.Equal(t, "post", req.Type)
	require.Equal(t, 5, *req.From)
	require.Equal(t, 10, *req.Size)
	require.Equal(t, []string{"createdAt:desc", "title"}, req.Sort)
	require.Empty(t, req.Body)
}

func TestSearchString_DefaultSize(t *testing.T) {
	e := newStub(map[string]reply{engine.OpSearch: {body: searchHits}})
	h := newTestServer(t, e)

	rr, _ := serve(t, h, http.MethodGet, "/blog/_search?q=*", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, esdex.DefaultQuerySize, *e.only(t, engine.OpSearch).Size)
}

func TestSearchString_BadPaging(t *testing.T) {
	e := newStub(nil)
	h := newTestServer(t, e)

	for _, target := range []string{"/blog/_search?size=ten", "/blog/_search?from=-1"} {
		rr, _ := serve(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	require.Zero(t, e.count())
}

func TestSearchStructured(t *testing.T) {
	e := newStub(map[string]reply{engine.OpSearch: {body: searchHits}})
	h := newTestServer(t, e)

	rr, _ := serve(t, h, http.MethodPost, "/blog/_search", `{
		"type": "post",
		"query": {"match": {"title": "x"}},
		"filter": {"term": {"draft": false}},
		"sort": [{"field": "createdAt", "order": "desc"}],
		"size": 3
	}`)
	require.Equal(t, http.StatusOK, rr.Code)

	req := e.only(t, engine.OpSearch)
	require.Empty(t, req.Query)
	require.Equal(t, 3, *req.Size)
	require.JSONEq(t, `{
		"query": {"match": {"title": "x"}},
		"post_filter": {"term": {"draft": false}},
		"sort": [{"createdAt": {"order": "desc"}}]
	}`, string(req.Body))
}

func TestSearchStructured_StringQuery(t *testing.T) {
	e := newStub(map[string]reply{engine.OpSearch: {body: searchHits}})
	h := newTestServer(t, e)

	rr, _ := serve(t, h, http.MethodPost, "/blog/_search", `{"query":"title:x"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "title:x", e.only(t, engine.OpSearch).Query)
}

func TestGetAll(t *testing.T) {
	e := newStub(map[string]reply{engine.OpSearch: {body: searchHits}})
	h := newTestServer(t, e)

	rr, _ := serve(t, h, http.MethodGet, "/blog/post/_all?from=2&size=5&fields=title,user&sort=title:asc,user", "")
	require.Equal(t, http.StatusOK, rr.Code)

	req := e.only(t, engine.OpSearch)
	require.Equal(t, "_type:post", req.Query)
	require.Equal(t, 2, *req.From)
	require.Equal(t, 5, *req.Size)
	require.Equal(t, []string{"title", "user"}, req.Fields)
	require.Equal(t, []string{"title:asc", "user"}, req.Sort)
}

func TestCount(t *testing.T) {
	e := newStub(map[string]reply{engine.OpCount: {body: `{"count":3}`}})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/blog/_count", `{"type":"post","query":{"term":{"user":"kim"}}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 3, out["count"])
	require.Equal(t, "post", e.only(t, engine.OpCount).Type)

	rr, _ = serve(t, h, http.MethodPost, "/blog/_count", `{"type":"post","query":{"filter":{"term":{"user":"kim"}}}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, 1, e.count())
}

func TestBulk(t *testing.T) {
	e := newStub(map[string]reply{engine.OpBulk: {body: `{"errors":false,"items":[{"index":{"_id":"1","status":201}}]}`}})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPost, "/_bulk", `[{"index":{"_index":"blog","_type":"post","_id":"1"}},{"title":"x"}]`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, false, out["errors"])

	lines := strings.Split(strings.TrimRight(string(e.only(t, engine.OpBulk).Body), "\n"), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"title":"x"}`, lines[1])

	rr, _ = serve(t, h, http.MethodPost, "/_bulk", `[]`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMapping(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpGetMapping: {body: `{"blog":{"mappings":{"post":{"properties":{"title":{"type":"text"}}}}}}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodGet, "/blog/_mapping?type=post", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"title": map[string]any{"type": "text"}}, out)
}

func TestGetAlias(t *testing.T) {
	found := newStub(map[string]reply{engine.OpGetAlias: {body: `{"blog_v2":{"aliases":{"blog":{}}}}`}})
	rr, out := serve(t, newTestServer(t, found), http.MethodGet, "/_alias/blog", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"alias": "blog", "index": "blog_v2"}, out)

	absent := newStub(map[string]reply{engine.OpGetAlias: {status: http.StatusNotFound, body: `{"error":"alias [blog] missing","status":404}`}})
	rr, out = serve(t, newTestServer(t, absent), http.MethodGet, "/_alias/blog", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, out["error"], "not found")
}

func TestIndexLifecycle(t *testing.T) {
	e := newStub(map[string]reply{
		engine.OpCreateIndex: {body: `{"acknowledged":true,"index":"blog"}`},
		engine.OpDeleteIndex: {body: `{"acknowledged":true}`},
	})
	h := newTestServer(t, e)

	rr, out := serve(t, h, http.MethodPut, "/blog", `{"settings":{"number_of_shards":1}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, out["acknowledged"])
	require.JSONEq(t, `{"settings":{"number_of_shards":1}}`, string(e.only(t, engine.OpCreateIndex).Body))

	rr, _ = serve(t, h, http.MethodDelete, "/blog", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "blog", e.only(t, engine.OpDeleteIndex).Index)
}

func TestHealthCheck(t *testing.T) {
	rr, out := serve(t, newTestServer(t, newStub(nil)), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "healthy", out["status"])

	down := newStub(map[string]reply{engine.OpPing: {err: engine.NewUnavailable(engine.OpPing, errors.New("refused"))}})
	rr, out = serve(t, newTestServer(t, down), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "unhealthy", out["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	rr, _ := serve(t, newTestServer(t, newStub(nil)), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestSortPairs(t *testing.T) {
	var got []string
	for f, d := range sortPairs(" a:asc, ,b ,c:desc") {
		got = append(got, f+"|"+d)
	}
	require.Equal(t, []string{"a|asc", "b|", "c|desc"}, got)
}
