// Package inspect exposes a running coalesce Manager over HTTP.
//
// It offers two building blocks:
//   - Timeline: a coalesce Sink that keeps the most recent events in a ring
//     buffer and streams them to websocket clients
//   - Server: a gin HTTP API serving the channel tree, single channels, the
//     timeline, a live event stream and Prometheus metrics
//
// Example:
//
//	timeline := inspect.NewTimeline(1024, logger)
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithSink(timeline))
//	srv := inspect.NewServer(inspect.ServerConfig{
//	    Addr:      ":9090",
//	    Inspector: mgr,
//	    Timeline:  timeline,
//	    Gatherer:  prometheus.DefaultGatherer,
//	    Logger:    logger,
//	})
//	go func() { _ = srv.Start() }()
//	defer srv.Shutdown(context.Background())
package inspect
