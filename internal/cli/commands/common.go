package commands

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trainlog-dev/trainlog/internal/cli/config"
	"github.com/trainlog-dev/trainlog/internal/cli/serverselect"
	"github.com/trainlog-dev/trainlog/internal/credstore"
	"github.com/trainlog-dev/trainlog/internal/logger"
	"github.com/trainlog-dev/trainlog/internal/session"
)

// storeOpener is swapped in tests to keep them off the OS keyring.
var storeOpener = credstore.Open

func newLogger() zerolog.Logger {
	level := os.Getenv("TRAINLOG_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return logger.New(level, os.Getenv("TRAINLOG_LOG_FORMAT"))
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Config, *config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w\nRun 'trainlog init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, nil, err
	}

	if server.URL == "" {
		return nil, nil, fmt.Errorf("server URL is empty. Please edit trainlog.json and add a valid URL")
	}

	return cfg, server, nil
}

// newSessionClient wires a session client for the selected server: the
// strategy comes from trainlog.json, the credential store is opened only
// for the bearer strategy (cookie sessions hold nothing client-side).
func newSessionClient(serverAlias string) (*session.Client, *config.Server, error) {
	log := newLogger()

	cfg, server, err := getSelectedServer(serverAlias)
	if err != nil {
		return nil, nil, err
	}

	strategy := session.Strategy(cfg.Strategy())
	var store credstore.Store = credstore.Noop{}
	if strategy == session.StrategyBearer {
		store = storeOpener(serverKey(server.URL), log)
	}

	client, err := session.New(session.Config{
		BaseURL:  server.URL,
		Strategy: strategy,
		Store:    store,
		Detached: os.Getenv("TRAINLOG_DETACHED") != "",
		Logger:   log,
	})
	if err != nil {
		return nil, nil, err
	}

	// Accept self-signed certificates: dev servers terminate TLS themselves
	client.SetHTTPClient(&http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
	})

	return client, server, nil
}

// serverKey is the per-server credential key: the URL host, or the raw
// value when the URL does not parse.
func serverKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// describeAuthError turns session error kinds into user-facing messages.
// Commands branch on kind, never on HTTP status codes.
func describeAuthError(err error) error {
	switch session.KindOf(err) {
	case session.KindInvalidCredentials:
		return fmt.Errorf("invalid username or password")
	case session.KindSessionExpired:
		return fmt.Errorf("session expired. Run 'trainlog login' to authenticate again")
	case session.KindServiceUnavailable:
		return fmt.Errorf("could not reach the TrainLog server, try again shortly: %w", err)
	}
	return err
}
