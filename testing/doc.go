// Package testing provides test utilities for coalesce and code built on it.
//
// It follows Go's convention of shipping testing helpers in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single in-process NATS server with JetStream
//   - CreateJetStreamKV: In-memory KV bucket for NATS-backed sources
//   - NewTestLogger: Logger writing to the test log
//
// Example usage:
//
//	import (
//	    "testing"
//	    coalescetest "github.com/arloliu/coalesce/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := coalescetest.StartEmbeddedNATS(t)
//	    mgr, _ := coalesce.NewManager(coalesce.TestConfig(),
//	        coalesce.WithLogger(coalescetest.NewTestLogger(t)))
//	    defer mgr.Close()
//	}
package testing
