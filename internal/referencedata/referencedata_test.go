package referencedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

func TestClientList(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/reference/district", r.URL.Path)
		assert.Equal(t, "RJ", r.URL.Query().Get("parent"))
		_, _ = w.Write([]byte(`{"items":[{"code":"RJ-JP","name":{"en":"Jaipur"}}]}`))
	}))
	defer srv.Close()
	rc, err := rest.New(srv.URL, "", time.Second)
	require.NoError(t, err)
	c := NewClient(rc)

	list, err := c.List(context.Background(), models.LevelDistrict, "RJ")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jaipur", list[0].Label("hi"))

	list, err = c.List(context.Background(), models.LevelDistrict, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 1, calls.Load(), "a child level without a parent never reaches the service")
}

func TestClientListOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	rc, err := rest.New(srv.URL, "", time.Second)
	require.NoError(t, err)

	_, err = NewClient(rc).List(context.Background(), models.LevelState, "")
	var nf *models.NetworkFailure
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "reference_state", nf.Op)
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
	list  []models.ReferenceEntry
}

func (s *countingSource) List(context.Context, models.Level, string) ([]models.ReferenceEntry, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	return s.list, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newCache(t *testing.T, src *countingSource) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(src, client, time.Minute, nil), mr
}

var states = []models.ReferenceEntry{{Code: "RJ", Name: map[string]string{"en": "Rajasthan"}}}

func TestCacheReadThrough(t *testing.T) {
	src := &countingSource{list: states}
	cache, mr := newCache(t, src)
	ctx := context.Background()

	first, err := cache.List(ctx, models.LevelState, "")
	require.NoError(t, err)
	second, err := cache.List(ctx, models.LevelState, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.count())
	assert.True(t, mr.Exists("reference:state:"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.List(ctx, models.LevelState, "")
	require.NoError(t, err)
	assert.Equal(t, 2, src.count())
}

func TestCacheCoalescesConcurrentMisses(t *testing.T) {
	src := &countingSource{list: states, gate: make(chan struct{})}
	cache, _ := newCache(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := cache.List(context.Background(), models.LevelState, "")
			assert.NoError(t, err)
			assert.Len(t, list, 1)
		}()
	}
	require.Eventually(t, func() bool { return src.count() == 1 }, time.Second, 5*time.Millisecond)
	close(src.gate)
	wg.Wait()
	assert.LessOrEqual(t, src.count(), 2)
}

func TestCacheDegradesWhenRedisIsDown(t *testing.T) {
	src := &countingSource{list: states}
	cache, mr := newCache(t, src)
	mr.Close()

	list, err := cache.List(context.Background(), models.LevelState, "")
	require.NoError(t, err)
	assert.Equal(t, states, list)
}

func TestCacheDropsCorruptEntries(t *testing.T) {
	src := &countingSource{list: states}
	cache, mr := newCache(t, src)
	require.NoError(t, mr.Set("reference:state:", "{not json"))

	list, err := cache.List(context.Background(), models.LevelState, "")
	require.NoError(t, err)
	assert.Equal(t, states, list)
	assert.Equal(t, 1, src.count())
}

func TestStaticSeed(t *testing.T) {
	s, err := NewStatic()
	require.NoError(t, err)
	ctx := context.Background()

	st, err := s.List(ctx, models.LevelState, "")
	require.NoError(t, err)
	assert.NotEmpty(t, st)

	districts, err := s.List(ctx, models.LevelDistrict, "RJ")
	require.NoError(t, err)
	assert.NotEmpty(t, districts)

	none, err := s.List(ctx, models.LevelCity, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	gotras, err := s.List(ctx, models.LevelGotra, "")
	require.NoError(t, err)
	assert.NotEmpty(t, gotras)
}

func TestParseStaticRejectsUnknownLevel(t *testing.T) {
	_, err := ParseStatic([]byte(`{"village":[{"code":"V1","name":{"en":"x"}}]}`))
	assert.Error(t, err)
}
