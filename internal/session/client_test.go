package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/upstream"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUpstream counts calls to a protected resource and the refresh
// endpoint, and scripts their responses.
type fakeUpstream struct {
	protectedCalls atomic.Int64
	refreshCalls   atomic.Int64

	// protected returns the response for the nth call (1-based).
	protected func(n int64, w http.ResponseWriter, r *http.Request)
	// refreshStatus and refreshBody script the refresh endpoint.
	refreshStatus int
	refreshBody   any
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.refreshStatus)
		_ = json.NewEncoder(w).Encode(f.refreshBody)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		n := f.protectedCalls.Add(1)
		f.protected(n, w, r)
	})
	return mux
}

func newSessionClient(t *testing.T, f *fakeUpstream) (*Client, *credential.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	up, err := upstream.New(upstream.Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, newTestLogger())
	require.NoError(t, err)

	store := credential.NewMemoryStore()
	return NewClient(up, store, newTestLogger()), store
}

func seedCredential(t *testing.T, store credential.Store) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), "sid", auth.Credential{
		AccessToken:  "t1",
		RefreshToken: "r1",
		Role:         auth.RoleCustomer,
	}))
}

func TestDo_NoCredential_FailsBeforeAnyNetworkCall(t *testing.T) {
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
		refreshStatus: http.StatusOK,
	}
	c, _ := newSessionClient(t, f)

	_, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "", nil, "")
	assert.True(t, auth.IsAuthError(err, auth.ReasonNotAuthenticated))
	assert.EqualValues(t, 0, f.protectedCalls.Load())
	assert.EqualValues(t, 0, f.refreshCalls.Load())
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	resp, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer t1", gotAuth)
}

func TestDo_401ThenRefreshThenRetry(t *testing.T) {
	var secondAuth string
	f := &fakeUpstream{
		protected: func(n int64, w http.ResponseWriter, r *http.Request) {
			if n == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			secondAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		},
		refreshStatus: http.StatusOK,
		refreshBody:   map[string]string{"access": "t2"},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	resp, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Exactly 2 calls to the protected endpoint, exactly 1 refresh, and
	// the caller sees the retried response.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, f.protectedCalls.Load())
	assert.EqualValues(t, 1, f.refreshCalls.Load())
	assert.Equal(t, "Bearer t2", secondAuth, "retry carries the refreshed token")

	cred, err := store.Get(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, "t2", cred.AccessToken, "store holds the replaced access token")
	assert.Equal(t, "r1", cred.RefreshToken)
	assert.Equal(t, auth.RoleCustomer, cred.Role)
}

func TestDo_RefreshFailure_ClearsCredentialAndStops(t *testing.T) {
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		refreshStatus: http.StatusUnauthorized,
		refreshBody:   map[string]string{"detail": "refresh token expired"},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	_, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "", nil, "")
	assert.True(t, auth.IsAuthError(err, auth.ReasonSessionExpired))

	assert.EqualValues(t, 1, f.protectedCalls.Load(), "no retry after a failed refresh")
	assert.EqualValues(t, 1, f.refreshCalls.Load(), "at most one refresh per failed request")

	_, err = store.Get(context.Background(), "sid")
	assert.ErrorIs(t, err, credential.ErrNoCredential, "credential is fully cleared")
}

func TestDo_RetriedRequestStill401_SurfacedNotLooped(t *testing.T) {
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		refreshStatus: http.StatusOK,
		refreshBody:   map[string]string{"access": "t2"},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	resp, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "second 401 is the caller's problem")
	assert.EqualValues(t, 2, f.protectedCalls.Load())
	assert.EqualValues(t, 1, f.refreshCalls.Load())
}

func TestDo_Non401ErrorsAreNotRetried(t *testing.T) {
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	resp, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/42/", "", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, 1, f.protectedCalls.Load())
	assert.EqualValues(t, 0, f.refreshCalls.Load())
}

func TestDo_BodyIsReplayedOnRetry(t *testing.T) {
	var bodies []string
	f := &fakeUpstream{
		protected: func(n int64, w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if n == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusCreated)
		},
		refreshStatus: http.StatusOK,
		refreshBody:   map[string]string{"access": "t2"},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	payload := []byte(`{"name":"Widget","price":10}`)
	resp, err := c.Do(context.Background(), "sid", http.MethodPost, "/product/products/", "", payload, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, string(payload), bodies[0])
	assert.Equal(t, string(payload), bodies[1], "retry replays the exact body")
}

func TestDo_QueryStringIsForwarded(t *testing.T) {
	var gotQuery string
	f := &fakeUpstream{
		protected: func(_ int64, w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusOK)
		},
	}
	c, store := newSessionClient(t, f)
	seedCredential(t, store)

	resp, err := c.Do(context.Background(), "sid", http.MethodGet, "/product/products/", "distributor_id=7", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "distributor_id=7", gotQuery)
}
