package credits

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/postgrest-go"

	"summatube/api-gateway/models"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *SupabaseStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := postgrest.NewClient(server.URL, "public", map[string]string{
		"apikey":        "service-key",
		"Authorization": "Bearer service-key",
	})
	return NewSupabaseStore(client)
}

func TestSupabaseStoreGetAccount(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/"+TableUserCredits), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("user_id") == "eq.alice" {
			_, _ = w.Write([]byte(`[{"user_id":"alice","credits":4,"total_spent":6}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	acc, err := store.GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, acc.Credits)
	assert.Equal(t, 6, acc.TotalSpent)

	_, err = store.GetAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSupabaseStoreSwapCreditsIsConditional(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.alice", r.URL.Query().Get("user_id"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"credits":3`)

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("credits") == "eq.4" {
			_, _ = w.Write([]byte(`[{"user_id":"alice","credits":3,"total_spent":7}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	swapped, err := store.SwapCredits(context.Background(), "alice", 4, 3, 7)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = store.SwapCredits(context.Background(), "alice", 5, 3, 7)
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestSupabaseStoreAddTransaction(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/"+TableTransactions), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"type":"spent"`)
		w.WriteHeader(http.StatusCreated)
	})

	err := store.AddTransaction(context.Background(), models.CreditTransaction{
		UserID: "alice", Amount: -1, Type: models.TransactionSpent, Description: SpendDescription,
	})
	assert.NoError(t, err)
}

func TestSupabaseStoreGetProfile(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") == "eq.alice" {
			_, _ = w.Write([]byte(`[{"id":"alice","full_name":"Alice"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	profile, err := store.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile["full_name"])

	profile, err = store.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, profile)
}
