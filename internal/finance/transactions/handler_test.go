package transactions

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/shared"
)

func newTestRouter(repo *memoryRepo) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo, nil, logger))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithOwner(req.Context(), 1)))
		})
	})
	h.MountRoutes(r)
	return r
}

func postTransaction(t *testing.T, router chi.Router, body map[string]any) (*httptest.ResponseRecorder, Transaction) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out Transaction
	if rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestCreateGeneratesClientRequestID(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 100)
	router := newTestRouter(repo)

	body := map[string]any{
		"type": "expense", "amount": 25, "currency": "USD", "account_id": accID,
	}
	rec, first := postTransaction(t, router, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, first.ClientRequestID)
	require.NotEmpty(t, *first.ClientRequestID)

	// Without a caller-supplied id each submission is distinct.
	rec, second := postTransaction(t, router, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEqual(t, *first.ClientRequestID, *second.ClientRequestID)
	require.Len(t, repo.txns, 2)
}

func TestCreateReplaysExplicitClientRequestID(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 100)
	router := newTestRouter(repo)

	body := map[string]any{
		"type": "expense", "amount": 25, "currency": "USD", "account_id": accID,
		"client_request_id": "req-777",
	}
	rec, first := postTransaction(t, router, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, second := postTransaction(t, router, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.txns, 1)
}
