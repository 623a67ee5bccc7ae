package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreDropsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(2)
	require.NoError(t, store.Append(ctx, Event{SessionID: "a", Action: ActionDraftStarted}))
	require.NoError(t, store.Append(ctx, Event{SessionID: "b", Action: ActionDraftStarted}))
	require.NoError(t, store.Append(ctx, Event{SessionID: "b", Action: ActionStepAdvanced}))

	recent, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].SessionID)

	gone, err := store.ListBySession(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func serveList(t *testing.T, store *InMemoryStore, query string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(store, nil).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/registration/events"+query, nil))
	return rec
}

func TestHandleList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	for _, e := range []Event{
		{SessionID: "s1", Action: ActionDraftStarted},
		{SessionID: "s2", Action: ActionDraftStarted},
		{SessionID: "s1", Action: ActionStepAdvanced, Step: "referral"},
	} {
		require.NoError(t, store.Append(ctx, e))
	}

	t.Run("by session", func(t *testing.T) {
		rec := serveList(t, store, "?session=s1")
		require.Equal(t, http.StatusOK, rec.Code)
		var body listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Events, 2)
		assert.Equal(t, "referral", body.Events[1].Step)
	})

	t.Run("recent with limit", func(t *testing.T) {
		rec := serveList(t, store, "?limit=1")
		require.Equal(t, http.StatusOK, rec.Code)
		var body listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Events, 1)
		assert.Equal(t, ActionStepAdvanced, body.Events[0].Action)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := serveList(t, store, "?limit=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
