package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedCredential(t *testing.T, store credential.Store, sid string, role auth.Role) {
	t.Helper()
	err := store.Put(context.Background(), sid, auth.Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Role:         role,
	})
	require.NoError(t, err)
}

func guardedRequest(t *testing.T, store credential.Store, required auth.RoleSet, sid string) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Guard(store, required, testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/distributor/products", nil)
	if sid != "" {
		req = req.WithContext(context.WithValue(req.Context(), sessionIDKey, sid))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	store := credential.NewMemoryStore()
	seedCredential(t, store, "sid-1", auth.RoleDistributor)

	rec := guardedRequest(t, store, auth.NewRoleSet(auth.RoleDistributor), "sid-1")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRedirectsToLoginWithoutCredential(t *testing.T) {
	store := credential.NewMemoryStore()

	rec := guardedRequest(t, store, auth.NewRoleSet(auth.RoleDistributor), "sid-absent")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		Error struct {
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, auth.PathLogin, body.Error.Redirect)
}

func TestGuardRedirectsToLoginWithoutSession(t *testing.T) {
	store := credential.NewMemoryStore()

	rec := guardedRequest(t, store, auth.NewRoleSet(auth.RoleDistributor), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardRejectsWrongRole(t *testing.T) {
	store := credential.NewMemoryStore()
	seedCredential(t, store, "sid-2", auth.RoleCustomer)

	rec := guardedRequest(t, store, auth.NewRoleSet(auth.RoleDistributor), "sid-2")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body struct {
		Error struct {
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, auth.PathUnauthorized, body.Error.Redirect)
}

func TestGuardSetsSessionRoleInContext(t *testing.T) {
	store := credential.NewMemoryStore()
	seedCredential(t, store, "sid-3", auth.RoleCustomer)

	var seenRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRole = logger.SessionRoleFromContext(r.Context())
	})
	handler := Guard(store, auth.NewRoleSet(auth.RoleCustomer), testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/customer/orders", nil)
	req = req.WithContext(context.WithValue(req.Context(), sessionIDKey, "sid-3"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, string(auth.RoleCustomer), seenRole)
}
