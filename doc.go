// Package esdex provides fluent, chainable request builders over an
// Elasticsearch 7.x engine and normalizes every response into one
// predictable shape.
//
// Documents come back flattened as Document values with a string "id".
// Lists come back as Results{Results, Total}. Every engine failure is an
// *EngineError whose Err holds what the engine reported.
//
// # Connecting
//
//	conn := esdex.NewConnection(nil)
//	_ = conn.Configure(esdex.Config{URL: "http://localhost:9200"})
//	client, _ := esdex.New(conn, esdex.WithLogger(logger))
//
// Configure may be called again at any time; builders resolve the engine
// handle when their terminal call runs.
//
// # Builders
//
// Builders are values. Configuration calls return a new builder and never
// touch the network; the terminal call (From, Into, To) does.
//
//	doc, _ := client.Get("42").OfType("post").From(ctx, "blog")
//	res, _ := client.Query("title:go").OfType("post").WithSize(10).From(ctx, "blog")
//	res, _ = client.Query(map[string]any{"term": map[string]any{"user": "kim"}}).
//	    SortBy("createdAt", "desc").
//	    From(ctx, "blog")
//	created, _ := client.Post(map[string]any{"title": "hello"}).OfType("post").Into(ctx, "blog")
//	_, _ = client.Delete(created.ID()).OfType("post").From(ctx, "blog")
//
// Terminal calls block until the engine answers; run them in goroutines
// for concurrency.
package esdex
