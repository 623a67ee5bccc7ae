package draft

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/internal/registration/draft/store/memory"
	"membership/internal/registration/models"
)

func TestPerKeyStateIsReleased(t *testing.T) {
	ctx := context.Background()
	store := New(memory.New())
	d := models.NewDraft(models.NewTopology(models.Flags{}))

	for i := 0; i < 10000; i++ {
		_, err := store.Save(ctx, fmt.Sprintf("sess-%d", i), d)
		require.NoError(t, err)
	}
	require.NoError(t, store.Clear(ctx, "sess-0"))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks)
}

func TestStampUnderSharedLock(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := New(memory.New(), WithClock(func() time.Time { return now }))

	first := store.lock("sess-1")
	queued := make(chan *keyLock)
	go func() { queued <- store.lock("sess-1") }()
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return first.refs == 2
	}, time.Second, time.Millisecond)

	a := store.stamp(first, time.Time{})
	assert.Equal(t, now, a)
	store.unlock("sess-1", first)

	second := <-queued
	require.Same(t, first, second)
	b := store.stamp(second, time.Time{})
	assert.True(t, b.After(a), "the queued writer sees the earlier stamp")

	c := store.stamp(second, b.Add(time.Second))
	assert.Equal(t, b.Add(time.Second+time.Microsecond), c)
	store.unlock("sess-1", second)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks)
}
