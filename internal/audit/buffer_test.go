package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	events []Event
	fail   bool
	closed bool
}

func (r *recordingSink) Emit(_ context.Context, e Event) error {
	if r.fail {
		return errors.New("sink down")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestBufferedPublisher(t *testing.T) {
	t.Run("drops oldest when full", func(t *testing.T) {
		sink := &recordingSink{}
		b := NewBufferedPublisher(sink, 2, WithBatchSize(10), WithBufferLogger(discardLogger()))
		for _, a := range []Action{ActionDealCreated, ActionDealApproved, ActionDealCompleted} {
			require.NoError(t, b.Emit(context.Background(), Event{Action: a}))
		}
		assert.Equal(t, 2, b.Len())
		assert.Equal(t, int64(1), b.Dropped())

		b.Flush(context.Background())
		require.Len(t, sink.events, 2)
		assert.Equal(t, ActionDealApproved, sink.events[0].Action)
		assert.Equal(t, ActionDealCompleted, sink.events[1].Action)
	})

	t.Run("close drains and rejects further events", func(t *testing.T) {
		sink := &recordingSink{}
		b := NewBufferedPublisher(sink, 8)
		require.NoError(t, b.Emit(context.Background(), Event{Action: ActionAssetRegistered}))
		require.NoError(t, b.Close())
		assert.Len(t, sink.events, 1)
		assert.True(t, sink.closed)
		assert.ErrorIs(t, b.Emit(context.Background(), Event{}), ErrBufferClosed)
	})

	t.Run("sink failures are discarded", func(t *testing.T) {
		sink := &recordingSink{fail: true}
		b := NewBufferedPublisher(sink, 8, WithBufferLogger(discardLogger()))
		require.NoError(t, b.Emit(context.Background(), Event{Action: ActionAssetRegistered}))
		b.Flush(context.Background())
		assert.Equal(t, 0, b.Len())
	})
}
