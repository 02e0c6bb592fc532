package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/trainlog-dev/trainlog/internal/credstore"
)

// Config configures a session client.
type Config struct {
	// BaseURL is the identity service origin, e.g. "https://api.trainlog.dev".
	BaseURL string

	// Strategy selects the credential transport. Defaults to StrategyBearer.
	Strategy Strategy

	// Store persists the bearer token across runs. Defaults to a no-op
	// store, which is also the correct choice for the cookie strategy
	// (nothing is persisted client-side there).
	Store credstore.Store

	// Detached marks a process with no runtime support for sessions
	// (offline scripts, build sandboxes). Detached clients skip credential
	// reads and network I/O entirely and resolve the identity to "no user".
	Detached bool

	Logger zerolog.Logger
}

// Client talks to the TrainLog identity service. It owns the session state
// for this process: login, identity resolution and logout all go through it
// and nothing else may mutate the state.
type Client struct {
	baseURL    string
	strategy   Strategy
	store      credstore.Store
	detached   bool
	httpClient *http.Client
	logger     zerolog.Logger
	validate   *validator.Validate
	holder     *holder
}

// New creates a session client for the given identity service.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity service base URL is required")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyBearer
	}
	if cfg.Strategy != StrategyBearer && cfg.Strategy != StrategyCookie {
		return nil, fmt.Errorf("unknown auth strategy %q", cfg.Strategy)
	}
	if cfg.Store == nil {
		cfg.Store = credstore.Noop{}
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		strategy: cfg.Strategy,
		// The layer keeps the artifact alive in-process even where the
		// backend cannot persist it (no keyring): the session then lasts
		// exactly as long as the process, like a tab that was never
		// reloaded.
		store:    credstore.NewLayered(cfg.Store),
		detached: cfg.Detached,
		logger:   cfg.Logger,
		validate: validator.New(),
		holder:   newHolder(),
	}

	c.SetHTTPClient(&http.Client{Timeout: 30 * time.Second})
	return c, nil
}

// SetHTTPClient swaps the underlying HTTP client (custom TLS settings,
// test servers). The authenticating transport is installed on top of the
// given client's transport, so every request keeps going through it.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = &authTransport{
		base:     base,
		strategy: c.strategy,
		store:    c.store,
		detached: c.detached,
		logger:   c.logger,
	}
	if c.strategy == StrategyCookie && httpClient.Jar == nil {
		// The jar is what carries the session under the cookie strategy;
		// the client never sees the cookie's value.
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}
	c.httpClient = httpClient
}

// Strategy returns the active credential transport strategy.
func (c *Client) Strategy() Strategy { return c.strategy }

// BaseURL returns the identity service origin.
func (c *Client) BaseURL() string { return c.baseURL }

// State returns the current session state.
func (c *Client) State() State { return c.holder.snapshot() }

// OnChange registers a listener for session state transitions and returns
// its cancel function. Listeners must not call back into the client.
func (c *Client) OnChange(fn func(State)) (cancel func()) {
	return c.holder.subscribe(fn)
}

// Close tears the client down. In-flight operations finish but no state
// transition is observable after Close returns.
func (c *Client) Close() { c.holder.close() }

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login submits credentials form-encoded (the service does not accept JSON
// here), establishes the session per the active strategy and resolves the
// identity. On failure the credential store is left untouched and the
// state returns to unauthenticated.
func (c *Client) Login(ctx context.Context, username, password string) (*CurrentUser, error) {
	if c.detached {
		return nil, &AuthError{Kind: KindEnvironmentUnsupported}
	}
	seq, ok := c.holder.begin()
	if !ok {
		return nil, fmt.Errorf("session client is closed")
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		c.holder.publish(seq, State{Phase: PhaseUnauthenticated})
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		authErr := &AuthError{Kind: KindServiceUnavailable, cause: err}
		c.holder.publish(seq, State{Phase: PhaseError, Err: authErr})
		return nil, authErr
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.holder.publish(seq, State{Phase: PhaseUnauthenticated})
		return nil, &AuthError{Kind: KindInvalidCredentials, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		authErr := &AuthError{Kind: KindServiceUnavailable, Status: resp.StatusCode}
		c.holder.publish(seq, State{Phase: PhaseError, Err: authErr})
		return nil, authErr
	}

	if c.strategy == StrategyBearer {
		var loginResp loginResponse
		if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
			authErr := &AuthError{Kind: KindServiceUnavailable,
				cause: fmt.Errorf("failed to decode response: %w", err)}
			c.holder.publish(seq, State{Phase: PhaseError, Err: authErr})
			return nil, authErr
		}
		if loginResp.AccessToken == "" {
			authErr := &AuthError{Kind: KindServiceUnavailable,
				cause: fmt.Errorf("login response carried no access token")}
			c.holder.publish(seq, State{Phase: PhaseError, Err: authErr})
			return nil, authErr
		}
		if err := c.store.Set(loginResp.AccessToken); err != nil {
			c.holder.publish(seq, State{Phase: PhaseUnauthenticated})
			return nil, fmt.Errorf("failed to save session token: %w", err)
		}
	} else {
		// Cookie strategy: the jar captured Set-Cookie on the way in and
		// the body carries nothing the client should hold on to.
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	user, err := c.fetchUser(ctx)
	if err != nil {
		c.publishFailure(seq, err)
		return nil, err
	}

	c.holder.publish(seq, State{Phase: PhaseAuthenticated, User: user})
	c.logger.Info().Str("username", user.Username).Bool("is_admin", user.IsAdmin).
		Msg("login succeeded")
	return user, nil
}

// FetchCurrentUser resolves "who is the current user" through the
// authenticated transport. Fetches supersede each other by issuance order:
// when several are in flight only the most recently issued one publishes
// its outcome. In a detached environment it resolves to no user without
// touching the network; a nil, nil return means exactly that.
func (c *Client) FetchCurrentUser(ctx context.Context) (*CurrentUser, error) {
	if c.detached {
		c.logger.Debug().Msg("detached environment, resolving to no user")
		c.holder.reset(State{Phase: PhaseUnauthenticated})
		return nil, nil
	}
	seq, ok := c.holder.begin()
	if !ok {
		return nil, fmt.Errorf("session client is closed")
	}

	user, err := c.fetchUser(ctx)
	if err != nil {
		c.publishFailure(seq, err)
		return nil, err
	}

	c.holder.publish(seq, State{Phase: PhaseAuthenticated, User: user})
	return user, nil
}

// Logout ends the session locally: the persisted artifact is cleared and
// the state returns to unauthenticated. Safe to call repeatedly. Under the
// cookie strategy the server session cannot be revoked by forgetting it
// client-side, so a best-effort invalidation call goes out first; its
// failure never blocks the logout.
func (c *Client) Logout(ctx context.Context) error {
	if !c.detached && c.strategy == StrategyCookie {
		c.invalidateServerSession(ctx)
		jar, _ := cookiejar.New(nil)
		c.httpClient.Jar = jar
	}
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	c.holder.reset(State{Phase: PhaseUnauthenticated})
	c.logger.Debug().Msg("session cleared")
	return nil
}

// RegisterParams is the account-creation request. Validation runs
// client-side before anything goes on the wire.
type RegisterParams struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}

// Register creates a new account on the identity service.
func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	if err := c.validate.Struct(params); err != nil {
		return fmt.Errorf("invalid registration request: %w", err)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/", strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Kind: KindServiceUnavailable, cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registration failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// fetchUser issues the authenticated identity fetch. A 401 clears the
// persisted artifact so the next login starts clean.
func (c *Client) fetchUser(ctx context.Context) (*CurrentUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: KindServiceUnavailable, cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.store.Clear(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to clear stale session token")
		}
		return nil, &AuthError{Kind: KindSessionExpired, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &AuthError{Kind: KindServiceUnavailable, Status: resp.StatusCode}
	}

	var user CurrentUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &AuthError{Kind: KindServiceUnavailable,
			cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &user, nil
}

// publishFailure maps an operation failure onto the state machine: an
// expired session is a resolved "no user", everything else is an error
// state the UI may retry from.
func (c *Client) publishFailure(seq uint64, err error) {
	if KindOf(err) == KindSessionExpired {
		c.holder.publish(seq, State{Phase: PhaseUnauthenticated})
		return
	}
	c.holder.publish(seq, State{Phase: PhaseError, Err: err})
}

// invalidateServerSession tells the service to drop the cookie session.
// Best effort: a dead service must not trap the user in a session.
func (c *Client) invalidateServerSession(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Msg("server-side session invalidation failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
}
