package session

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainlog-dev/trainlog/internal/credstore"
)

type captureTransport struct {
	seen *http.Request
}

func (c *captureTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.seen = r
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("{}")),
	}, nil
}

func TestAuthTransport_BearerInjectsHeaderOnClone(t *testing.T) {
	store := credstore.NewMemory()
	require.NoError(t, store.Set("tok-123"))

	capture := &captureTransport{}
	rt := &authTransport{base: capture, strategy: StrategyBearer, store: store, logger: zerolog.Nop()}

	req, err := http.NewRequest(http.MethodGet, "http://service.local/auth/me", nil)
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-123", capture.seen.Header.Get("Authorization"))
	assert.NotEmpty(t, capture.seen.Header.Get("X-Request-ID"))

	// The caller's request is untouched.
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("X-Request-ID"))
}

func TestAuthTransport_NoTokenPassesThrough(t *testing.T) {
	capture := &captureTransport{}
	rt := &authTransport{base: capture, strategy: StrategyBearer, store: credstore.NewMemory(), logger: zerolog.Nop()}

	req, _ := http.NewRequest(http.MethodGet, "http://service.local/auth/me", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	// No token: the request goes out unauthenticated rather than failing
	// client-side; rejecting it is the service's job.
	assert.Empty(t, capture.seen.Header.Get("Authorization"))
}

func TestAuthTransport_CookieStrategyAddsNoHeader(t *testing.T) {
	store := credstore.NewMemory()
	require.NoError(t, store.Set("should-not-be-used"))

	capture := &captureTransport{}
	rt := &authTransport{base: capture, strategy: StrategyCookie, store: store, logger: zerolog.Nop()}

	req, _ := http.NewRequest(http.MethodGet, "http://service.local/auth/me", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, capture.seen.Header.Get("Authorization"),
		"strategies are mutually exclusive, never mixed on one request")
}

func TestAuthTransport_DetachedForwardsUnchanged(t *testing.T) {
	store := credstore.NewMemory()
	require.NoError(t, store.Set("tok-123"))

	capture := &captureTransport{}
	rt := &authTransport{base: capture, strategy: StrategyBearer, store: store, detached: true, logger: zerolog.Nop()}

	req, _ := http.NewRequest(http.MethodGet, "http://service.local/auth/me", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Same(t, req, capture.seen)
	assert.Empty(t, capture.seen.Header.Get("Authorization"))
}
