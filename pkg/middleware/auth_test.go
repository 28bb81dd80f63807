package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbastos/bankroll/internal/auth"
)

func TestRequireAuth_ValidToken(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := manager.Generate("player-a", "alice")
	require.NoError(t, err)

	var gotPlayerID string
	handler := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPlayerID, _ = GetPlayerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "player-a", gotPlayerID)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	handler := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	handler := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	handler := RequireAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPlayerID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetPlayerID(req.Context())
	assert.False(t, ok)
}
