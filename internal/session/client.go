// Package session wraps upstream requests with the current access token and
// the single refresh-retry protocol. Every authenticated page module goes
// through this client; none of them touch tokens directly.
package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/upstream"
)

const refreshPath = "/token/refresh/"

var refreshAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_token_refresh_total",
		Help: "Access token refresh attempts triggered by upstream 401s",
	},
	[]string{"result"},
)

// Client performs authenticated calls against the upstream API on behalf of
// a session.
type Client struct {
	upstream *upstream.Client
	store    credential.Store
	logger   *slog.Logger
}

// NewClient creates a session client.
func NewClient(up *upstream.Client, store credential.Store, logger *slog.Logger) *Client {
	return &Client{upstream: up, store: store, logger: logger}
}

// Do sends one authenticated request for the given session.
//
// Protocol:
//  1. no credential in the store: fail with not_authenticated before any
//     network traffic;
//  2. attach the access token as a bearer credential and send;
//  3. on 401, perform exactly one refresh; on refresh success, swap the
//     stored access token and retry the original request exactly once;
//  4. on refresh failure, clear the whole credential and fail with
//     session_expired; callers must not retry further;
//  5. any other status is the caller's to interpret, never retried.
//
// The body is buffered up front so the single retry can replay it. At most
// one round trip ever hits the refresh endpoint per failed request, which
// is what keeps an invalid refresh token from looping.
func (c *Client) Do(ctx context.Context, sessionID, method, path string, rawQuery string, body []byte, contentType string) (*http.Response, error) {
	cred, err := c.store.Get(ctx, sessionID)
	if err != nil {
		if err == credential.ErrNoCredential {
			return nil, auth.NewAuthError(auth.ReasonNotAuthenticated, "not authenticated")
		}
		return nil, err
	}

	resp, err := c.send(ctx, method, c.upstream.URL(path, rawQuery), body, contentType, cred.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	newAccess, err := c.refresh(ctx, sessionID, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	retry, err := c.send(ctx, method, c.upstream.URL(path, rawQuery), body, contentType, newAccess)
	if err != nil {
		return nil, err
	}
	return retry, nil
}

// send issues a single bearer-authenticated request.
func (c *Client) send(ctx context.Context, method, url string, body []byte, contentType, accessToken string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &auth.NetworkError{Op: method + " " + url, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.upstream.Do(req)
}

// refresh exchanges the stored refresh token for a new access token. Any
// failure, transport or non-2xx, is terminal for the session: the
// credential is cleared so a half-valid session cannot linger.
func (c *Client) refresh(ctx context.Context, sessionID, refreshToken string) (string, error) {
	resp, err := c.upstream.PostJSON(ctx, refreshPath, map[string]string{
		"refresh": refreshToken,
	})
	if err != nil {
		return "", c.expireSession(ctx, sessionID, "refresh transport failure")
	}

	var body struct {
		Access string `json:"access"`
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		return "", c.expireSession(ctx, sessionID, "refresh rejected by upstream")
	}
	if err := upstream.DecodeJSON(resp, &body); err != nil || body.Access == "" {
		return "", c.expireSession(ctx, sessionID, "refresh response missing access token")
	}

	if err := c.store.ReplaceAccessToken(ctx, sessionID, body.Access); err != nil {
		return "", err
	}
	refreshAttempts.WithLabelValues("success").Inc()
	return body.Access, nil
}

// expireSession clears the credential and reports session_expired.
func (c *Client) expireSession(ctx context.Context, sessionID, cause string) error {
	refreshAttempts.WithLabelValues("failure").Inc()
	c.logger.WarnContext(ctx, "session expired", slog.String("cause", cause))
	if err := c.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	return auth.NewAuthError(auth.ReasonSessionExpired, "session expired")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
