package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch1, unsub1 := bus.Subscribe()
	ch2, unsub2 := bus.Subscribe()
	defer unsub1()
	defer unsub2()

	bus.Publish(&AnalysisInvalidatedData{Reason: "dte_rollover"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		evt := <-ch
		assert.Equal(t, AnalysisInvalidated, evt.Type)
		data, ok := evt.Data.(*AnalysisInvalidatedData)
		require.True(t, ok)
		assert.Equal(t, "dte_rollover", data.Reason)
		assert.False(t, evt.Timestamp.IsZero())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()
	// Second call is a no-op, not a double close
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Publishing to a bus with no subscribers must not panic
	bus.Publish(&BackupCompletedData{Key: "backups/x.tar.gz"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Fill the buffer past capacity without draining
	for i := 0; i < 32; i++ {
		bus.Publish(&PositionsImportedData{SessionID: "s", Positions: i})
	}

	assert.Len(t, ch, 16)
}
