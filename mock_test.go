package esdex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/esdex/internal/engine"
)

// fakeEngine records every request and answers through optional fn fields.
// A nil fn answers "{}".
type fakeEngine struct {
	mu    sync.Mutex
	calls []fakeCall

	pingFn           func(ctx context.Context) error
	getFn            func(ctx context.Context, req Request) ([]byte, error)
	multiGetFn       func(ctx context.Context, req Request) ([]byte, error)
	createFn         func(ctx context.Context, req Request) ([]byte, error)
	updateFn         func(ctx context.Context, req Request) ([]byte, error)
	deleteFn         func(ctx context.Context, req Request) ([]byte, error)
	deleteByQueryFn  func(ctx context.Context, req Request) ([]byte, error)
	bulkFn           func(ctx context.Context, req Request) ([]byte, error)
	searchFn         func(ctx context.Context, req Request) ([]byte, error)
	countFn          func(ctx context.Context, req Request) ([]byte, error)
	indexExistsFn    func(ctx context.Context, req Request) (bool, error)
	createIndexFn    func(ctx context.Context, req Request) ([]byte, error)
	deleteIndexFn    func(ctx context.Context, req Request) ([]byte, error)
	getMappingFn     func(ctx context.Context, req Request) ([]byte, error)
	putMappingFn     func(ctx context.Context, req Request) ([]byte, error)
	putAliasFn       func(ctx context.Context, req Request) ([]byte, error)
	deleteAliasFn    func(ctx context.Context, req Request) ([]byte, error)
	getAliasFn       func(ctx context.Context, req Request) ([]byte, error)
	aliasExistsFn    func(ctx context.Context, req Request) (bool, error)
	putTemplateFn    func(ctx context.Context, req Request) ([]byte, error)
	deleteTemplateFn func(ctx context.Context, req Request) ([]byte, error)
	getTemplateFn    func(ctx context.Context, req Request) ([]byte, error)
}

type fakeCall struct {
	op  string
	req Request
}

var _ Engine = (*fakeEngine)(nil)

func (f *fakeEngine) record(op string, req Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{op: op, req: req})
}

func (f *fakeEngine) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeEngine) answer(
	ctx context.Context, op string, req Request, fn func(context.Context, Request) ([]byte, error),
) ([]byte, error) {
	f.record(op, req)
	if fn == nil {
		return []byte(`{}`), nil
	}
	return fn(ctx, req)
}

func (f *fakeEngine) Ping(ctx context.Context) error {
	f.record(engine.OpPing, Request{})
	if f.pingFn == nil {
		return nil
	}
	return f.pingFn(ctx)
}

func (f *fakeEngine) Get(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpGet, req, f.getFn)
}

func (f *fakeEngine) MultiGet(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpMultiGet, req, f.multiGetFn)
}

func (f *fakeEngine) Create(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpCreate, req, f.createFn)
}

func (f *fakeEngine) Update(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpUpdate, req, f.updateFn)
}

func (f *fakeEngine) Delete(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpDelete, req, f.deleteFn)
}

func (f *fakeEngine) DeleteByQuery(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpDeleteByQuery, req, f.deleteByQueryFn)
}

func (f *fakeEngine) Bulk(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpBulk, req, f.bulkFn)
}

func (f *fakeEngine) Search(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpSearch, req, f.searchFn)
}

func (f *fakeEngine) Count(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpCount, req, f.countFn)
}

func (f *fakeEngine) IndexExists(ctx context.Context, req Request) (bool, error) {
	f.record(engine.OpIndexExists, req)
	if f.indexExistsFn == nil {
		return false, nil
	}
	return f.indexExistsFn(ctx, req)
}

func (f *fakeEngine) CreateIndex(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpCreateIndex, req, f.createIndexFn)
}

func (f *fakeEngine) DeleteIndex(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpDeleteIndex, req, f.deleteIndexFn)
}

func (f *fakeEngine) GetMapping(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpGetMapping, req, f.getMappingFn)
}

func (f *fakeEngine) PutMapping(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpPutMapping, req, f.putMappingFn)
}

func (f *fakeEngine) PutAlias(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpPutAlias, req, f.putAliasFn)
}

func (f *fakeEngine) DeleteAlias(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpDeleteAlias, req, f.deleteAliasFn)
}

func (f *fakeEngine) GetAlias(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpGetAlias, req, f.getAliasFn)
}

func (f *fakeEngine) AliasExists(ctx context.Context, req Request) (bool, error) {
	f.record(engine.OpAliasExists, req)
	if f.aliasExistsFn == nil {
		return false, nil
	}
	return f.aliasExistsFn(ctx, req)
}

func (f *fakeEngine) PutTemplate(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpPutTemplate, req, f.putTemplateFn)
}

func (f *fakeEngine) DeleteTemplate(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpDeleteTemplate, req, f.deleteTemplateFn)
}

func (f *fakeEngine) GetTemplate(ctx context.Context, req Request) ([]byte, error) {
	return f.answer(ctx, engine.OpGetTemplate, req, f.getTemplateFn)
}

// fixedNow is the clock of every test client.
var fixedNow = time.Date(2024, 3, 5, 7, 8, 9, 123_000_000, time.UTC)

func newTestClient(t *testing.T, fe *fakeEngine, opts ...Option) *Client {
	t.Helper()
	conn := NewConnection(nil)
	conn.SetHandle(fe)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := New(conn, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func body(s string) func(context.Context, Request) ([]byte, error) {
	return func(context.Context, Request) ([]byte, error) { return []byte(s), nil }
}

func errBody(op string, status int, s string) func(context.Context, Request) ([]byte, error) {
	return func(context.Context, Request) ([]byte, error) {
		return nil, &engine.Error{Op: op, Status: status, Body: []byte(s)}
	}
}
