package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SeenUnknownID(t *testing.T) {
	store := NewMemoryStore(15*time.Minute, 100)
	seen, err := store.Seen(context.Background(), "evt_unknown")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryStore_MarkThenSeen(t *testing.T) {
	store := NewMemoryStore(15*time.Minute, 100)
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_1"))

	seen, err := store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.Seen(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(15*time.Minute, 100)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_1"))

	now = now.Add(14 * time.Minute)
	seen, err := store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen, "entry inside TTL should still be seen")

	now = now.Add(2 * time.Minute)
	seen, err = store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen, "expired entry should read as never seen")
}

func TestMemoryStore_CapacityEviction(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(15*time.Minute, 3)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.MarkSeen(ctx, fmt.Sprintf("evt_%d", i)))
		now = now.Add(time.Second)
	}
	assert.Equal(t, 3, store.Len())

	// A fourth mark at capacity evicts the soonest-expiring entry (evt_0).
	require.NoError(t, store.MarkSeen(ctx, "evt_3"))
	assert.Equal(t, 3, store.Len())

	seen, err := store.Seen(ctx, "evt_0")
	require.NoError(t, err)
	assert.False(t, seen)

	for _, id := range []string{"evt_1", "evt_2", "evt_3"} {
		seen, err := store.Seen(ctx, id)
		require.NoError(t, err)
		assert.True(t, seen, id)
	}
}

func TestMemoryStore_EvictionPrefersExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10*time.Minute, 2)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.MarkSeen(ctx, "evt_old"))
	now = now.Add(11 * time.Minute) // evt_old expires
	require.NoError(t, store.MarkSeen(ctx, "evt_live"))

	// At capacity the expired entry goes first, keeping the live one.
	require.NoError(t, store.MarkSeen(ctx, "evt_new"))

	seen, err := store.Seen(ctx, "evt_live")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.Seen(ctx, "evt_old")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(15*time.Minute, 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("evt_%d", n%10)
			assert.NoError(t, store.MarkSeen(ctx, id))
			_, err := store.Seen(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		seen, err := store.Seen(ctx, fmt.Sprintf("evt_%d", i))
		require.NoError(t, err)
		assert.True(t, seen)
	}
}
