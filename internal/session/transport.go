package session

import (
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/trainlog-dev/trainlog/internal/credstore"
)

// Strategy selects how the session artifact travels with requests. Exactly
// one strategy is active per client, chosen from configuration at
// construction; the two are never mixed on the same request.
type Strategy string

const (
	// StrategyBearer stores the token client-side and attaches an
	// Authorization header to every request.
	StrategyBearer Strategy = "bearer"
	// StrategyCookie leaves session state with the server; the client's
	// cookie jar sends the session cookie automatically and no explicit
	// header is added.
	StrategyCookie Strategy = "cookie"
)

// authTransport augments every outgoing request per the active strategy.
// It never mutates the caller's request: augmentation happens on a clone.
// There is no per-request opt-out.
type authTransport struct {
	base     http.RoundTripper
	strategy Strategy
	store    credstore.Store
	detached bool
	logger   zerolog.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.detached {
		// No runtime support behind this process: forward unchanged.
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	requestID := ulid.Make().String()
	out.Header.Set("X-Request-ID", requestID)

	if t.strategy == StrategyBearer {
		// A missing token is not an error here: the request goes out
		// unauthenticated and the service answers 401.
		if token, ok, err := t.store.Get(); err == nil && ok {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	t.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("dispatching request")

	return t.base.RoundTrip(out)
}
