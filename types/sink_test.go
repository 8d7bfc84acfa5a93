package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestField_String(t *testing.T) {
	require.Equal(t, "Loading", FieldLoading.String())
	require.Equal(t, "Executed", FieldExecuted.String())
	require.Equal(t, "Errored", FieldErrored.String())
	require.Equal(t, "Error", FieldError.String())
	require.Equal(t, "Response", FieldResponse.String())
	require.Equal(t, "Refresh", FieldRefresh.String())
	require.Equal(t, "Unknown", Field(42).String())
}

func TestSinkFuncs(t *testing.T) {
	info := ChannelInfo{Signature: "0-[1]", Operation: "fetchUser"}

	t.Run("nil callbacks are skipped", func(t *testing.T) {
		sink := &SinkFuncs{}

		require.NotPanics(t, func() {
			sink.OnChannelCreated(info)
			sink.OnChannelRemoved(info)
			sink.OnSubscriptionCreated(info, 1)
			sink.OnSubscriptionRemoved(info, 1)
			sink.OnStateChanged(info, FieldLoading, true)
		})
	})

	t.Run("set callbacks receive arguments", func(t *testing.T) {
		var (
			created, removed     ChannelInfo
			subCreated, subRemov uint64
			field                Field
			value                any
		)

		sink := &SinkFuncs{
			ChannelCreated:      func(ch ChannelInfo) { created = ch },
			ChannelRemoved:      func(ch ChannelInfo) { removed = ch },
			SubscriptionCreated: func(_ ChannelInfo, id uint64) { subCreated = id },
			SubscriptionRemoved: func(_ ChannelInfo, id uint64) { subRemov = id },
			StateChanged: func(_ ChannelInfo, f Field, v any) {
				field = f
				value = v
			},
		}

		sink.OnChannelCreated(info)
		sink.OnChannelRemoved(info)
		sink.OnSubscriptionCreated(info, 7)
		sink.OnSubscriptionRemoved(info, 8)
		sink.OnStateChanged(info, FieldErrored, true)

		require.Equal(t, info, created)
		require.Equal(t, info, removed)
		require.Equal(t, uint64(7), subCreated)
		require.Equal(t, uint64(8), subRemov)
		require.Equal(t, FieldErrored, field)
		require.Equal(t, true, value)
	})
}
