package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/pkg/requestcontext"
)

func TestPublisherStampsEvents(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	require.NoError(t, p.Emit(ctx, Event{SessionID: "s1", Action: ActionDraftStarted}))

	events, err := store.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestPublisherOutboxNeverBlocks(t *testing.T) {
	outbox := make(chan Event, 1)
	store := NewInMemoryStore()
	p := NewPublisher(store, WithOutbox(outbox))
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{SessionID: "s1", Action: ActionDraftStarted}))
	require.NoError(t, p.Emit(ctx, Event{SessionID: "s1", Action: ActionStepAdvanced}))

	assert.Len(t, outbox, 1)
	recent, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

type flakyStore struct {
	mu    sync.Mutex
	fail  bool
	calls int
	got   []Event
}

func (f *flakyStore) Append(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("broker down")
	}
	f.got = append(f.got, e)
	return nil
}

func TestWorkerPausesAfterRepeatedFailures(t *testing.T) {
	store := &flakyStore{fail: true}
	w := NewWorker(store, nil, WithBreaker(2, time.Minute))
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	ctx := context.Background()

	w.deliver(ctx, Event{Action: ActionDraftStarted})
	w.deliver(ctx, Event{Action: ActionDraftStarted})
	w.deliver(ctx, Event{Action: ActionDraftStarted})
	assert.Equal(t, 2, store.calls, "third event is skipped while paused")

	now = now.Add(2 * time.Minute)
	store.fail = false
	w.deliver(ctx, Event{Action: ActionStepAdvanced})
	w.deliver(ctx, Event{Action: ActionStepAdvanced})
	assert.Len(t, store.got, 2)
}

func TestWorkerRunStopsWhenInboxCloses(t *testing.T) {
	inbox := make(chan Event, 2)
	store := NewInMemoryStore()
	inbox <- Event{SessionID: "s1", Action: ActionDraftStarted}
	inbox <- Event{SessionID: "s1", Action: ActionDraftAbandoned}
	close(inbox)

	require.NoError(t, NewWorker(store, inbox).Run(context.Background()))
	events, err := store.ListBySession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
