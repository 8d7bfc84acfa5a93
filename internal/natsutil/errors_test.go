package natsutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", nats.ErrTimeout, true},
		{"wrapped timeout", fmt.Errorf("get failed: %w", nats.ErrTimeout), true},
		{"no servers", nats.ErrNoServers, true},
		{"disconnected", nats.ErrDisconnected, true},
		{"closed", nats.ErrConnectionClosed, true},
		{"draining", nats.ErrConnectionDraining, true},
		{"no stream response", jetstream.ErrNoStreamResponse, true},
		{"refused text", errors.New("dial tcp 127.0.0.1:4222: connect: connection refused"), true},
		{"no responders", nats.ErrNoResponders, false},
		{"key not found", jetstream.ErrKeyNotFound, false},
		{"context canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsConnectivityError(tt.err))
		})
	}
}
