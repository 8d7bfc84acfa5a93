package inspect

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coalesce/types"
)

var testInfo = types.ChannelInfo{Signature: "0-[1]", Operation: "fetchUser"}

func TestTimeline_RecordsInOrder(t *testing.T) {
	tl := NewTimeline(8, nil)

	tl.OnChannelCreated(testInfo)
	tl.OnSubscriptionCreated(testInfo, 7)
	tl.OnStateChanged(testInfo, types.FieldLoading, true)
	tl.OnSubscriptionRemoved(testInfo, 7)
	tl.OnChannelRemoved(testInfo)

	events := tl.Events()
	require.Len(t, events, 5)

	kinds := make([]string, 0, len(events))
	for i, ev := range events {
		require.Equal(t, uint64(i+1), ev.Seq)
		require.Equal(t, "0-[1]", ev.Signature)
		require.Equal(t, "fetchUser", ev.Operation)
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []string{
		KindChannelCreated,
		KindSubscriptionCreated,
		KindStateChanged,
		KindSubscriptionRemoved,
		KindChannelRemoved,
	}, kinds)

	require.Equal(t, uint64(7), events[1].SubscriptionID)
	require.Equal(t, "Loading", events[2].Field)
	require.JSONEq(t, "true", string(events[2].Value))
}

func TestTimeline_RingWraps(t *testing.T) {
	tl := NewTimeline(3, nil)

	for range 5 {
		tl.OnChannelCreated(testInfo)
	}

	events := tl.Events()
	require.Len(t, events, 3)
	require.Equal(t, uint64(3), events[0].Seq)
	require.Equal(t, uint64(4), events[1].Seq)
	require.Equal(t, uint64(5), events[2].Seq)
}

func TestTimeline_DefaultSize(t *testing.T) {
	tl := NewTimeline(0, nil)
	require.Len(t, tl.ring, DefaultTimelineSize)
}

func TestTimeline_EncodeValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"bool", false, "false"},
		{"error", errors.New("boom"), `"boom"`},
		{"duration", 1500 * time.Millisecond, `"1.5s"`},
		{"struct", struct{ A int }{A: 1}, `{"A":1}`},
		{"unmarshalable", make(chan int), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeValue(tt.value)
			if tt.want == "" {
				var s string
				require.NoError(t, json.Unmarshal(got, &s))
				require.NotEmpty(t, s)

				return
			}
			require.JSONEq(t, tt.want, string(got))
		})
	}

	require.Nil(t, encodeValue(nil))
}

func TestTimeline_BroadcastDropsForSlowClient(t *testing.T) {
	tl := NewTimeline(4, nil)

	cl, detach := tl.attach()
	require.Equal(t, 1, tl.Clients())
	require.Len(t, cl.id, 10)

	for range clientQueueSize + 5 {
		tl.OnChannelCreated(testInfo)
	}

	require.Len(t, cl.send, clientQueueSize)
	require.Equal(t, uint64(5), tl.Dropped())

	var ev Event
	require.NoError(t, json.Unmarshal(<-cl.send, &ev))
	require.Equal(t, uint64(1), ev.Seq)
	require.Equal(t, KindChannelCreated, ev.Kind)

	detach()
	require.Equal(t, 0, tl.Clients())
}
