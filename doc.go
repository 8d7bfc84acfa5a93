// Package coalesce deduplicates polling subscriptions to remote operations.
//
// Many independent consumers often ask for the result of the same call: the same
// user profile, the same dashboard query, the same KV entry. coalesce collapses
// every request with the same operation and structurally equal arguments onto a
// single Channel with one in-flight execution, one cached response and one
// refresh timer. Each consumer holds a Subscription that mirrors the channel's
// response, loading, executed and error state.
//
// # Quick Start
//
//	var fetchUser = coalesce.Func1("fetchUser", func(ctx context.Context, id int) (*User, error) {
//	    return api.GetUser(ctx, id)
//	})
//
//	cfg := coalesce.DefaultConfig()
//	mgr, err := coalesce.NewManager(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	sub, _ := mgr.Subscribe(fetchUser, []any{42}, coalesce.Options{Interval: 5 * time.Second})
//	defer sub.Unsubscribe()
//
//	for range sub.Changed() {
//	    if user, ok := coalesce.ResponseAs[*User](sub); ok {
//	        render(user)
//	    }
//	}
//
// # Key Features
//
//   - Deduplication: one execution per signature regardless of the number of consumers
//   - Adaptive refresh: a channel refreshes at the fastest interval any consumer asked for
//   - Error suspension: a failing call stops automatic refresh until Subscription.Refresh
//   - Late joiners: a new subscription immediately sees the cached response
//   - Observability: lifecycle notifications through a Sink, Prometheus metrics
//
// # Architecture
//
// Each channel moves through a small state machine:
//
//	IDLE → LOADING → READY | ERRORED
//
// The Manager keeps a lock-free registry of channels keyed by signature
// ("{operationID}-{encodedArgs}"). A channel is removed when its last
// subscription leaves; a later subscribe with the same signature starts over
// from IDLE.
//
// # Advanced Usage
//
// Observability and signature tuning:
//
//	import (
//	    "github.com/arloliu/coalesce"
//	    "github.com/arloliu/coalesce/inspect"
//	)
//
//	timeline := inspect.NewTimeline(500)
//	cfg := coalesce.DefaultConfig()
//	cfg.Signature.Compact = true
//
//	mgr, _ := coalesce.NewManager(&cfg,
//	    coalesce.WithSink(timeline),
//	    coalesce.WithMetrics(collector),
//	)
//
// See the examples directory for complete programs.
package coalesce
