package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kunlesxo/cyriox-storefront/internal/middleware"
	"github.com/kunlesxo/cyriox-storefront/internal/session"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
)

// relayBodyLimit caps the request body accepted for relayed writes.
const relayBodyLimit = 1 << 20

// Relay forwards page traffic to the upstream API through the session
// client, which attaches the bearer token and handles the refresh cycle.
// The upstream's status and payload pass through unchanged.
type Relay struct {
	sessions *session.Client
	logger   *slog.Logger
}

// NewRelay creates the page relay handler.
func NewRelay(sessions *session.Client, logger *slog.Logger) *Relay {
	return &Relay{sessions: sessions, logger: logger.With(slog.String("component", "relay"))}
}

// Resource returns a handler that maps a local resource subtree onto an
// upstream collection. The wildcard remainder of the route is appended to
// the upstream prefix, so /distributor/products/42 reaches
// /product/products/42/ when mounted with prefix /product/products/.
func (h *Relay) Resource(upstreamPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suffix := chi.URLParam(r, "*")
		path := upstreamPrefix + suffix
		// The upstream API routes with trailing slashes.
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		h.forward(w, r, path)
	}
}

// To returns a handler that relays to one fixed upstream path.
func (h *Relay) To(upstreamPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.forward(w, r, upstreamPath)
	}
}

func (h *Relay) forward(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	ctx := r.Context()
	sid := middleware.SessionIDFromContext(ctx)

	var body []byte
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, relayBodyLimit+1))
		if err != nil {
			httputil.WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
			return
		}
		if len(body) > relayBodyLimit {
			httputil.WriteError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
			return
		}
	}

	resp, err := h.sessions.Do(ctx, sid, r.Method, upstreamPath, r.URL.RawQuery, body, r.Header.Get("Content-Type"))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.WarnContext(ctx, "relay copy interrupted",
			slog.String("path", upstreamPath),
			slog.String("error", err.Error()))
	}
}
