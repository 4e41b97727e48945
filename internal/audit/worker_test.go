package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbox := make(chan Event, 8)
	store := NewInMemoryStore()
	pub := NewPublisher(inbox, discardLogger())
	worker := NewWorker(store, inbox, discardLogger())

	go worker.Run(ctx)

	pub.Emit(ctx, Event{Actor: "alice", LotID: 1, Action: ActionLotCreated})
	pub.Emit(ctx, Event{Actor: "bob", LotID: 1, Action: ActionRentalStarted, Amount: 100})
	pub.Emit(ctx, Event{Actor: "carol", LotID: 2, Action: ActionLotCreated})

	require.Eventually(t, func() bool {
		events, err := store.ListByLot(ctx, 1)
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByLot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionLotCreated, events[0].Action)
	assert.Equal(t, ActionRentalStarted, events[1].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewPublisher(inbox, discardLogger())

	pub.Emit(context.Background(), Event{Action: ActionLotCreated})
	// Second emit must not block even though nothing drains the inbox.
	done := make(chan struct{})
	go func() {
		pub.Emit(context.Background(), Event{Action: ActionLotSold})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}
