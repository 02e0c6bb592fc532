package credstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"
)

const (
	service = "trainlog-cli"

	// probeKey is read once at Open time to find out whether a keyring
	// backend exists at all. It is never written.
	probeKey = "probe"
)

// Store holds the session artifact for one server. Get reports absence via
// the bool, not an error; Clear on a missing entry succeeds.
type Store interface {
	Get() (token string, ok bool, err error)
	Set(token string) error
	Clear() error
}

// getKeyringKey returns a unique key for storing session tokens per server
func getKeyringKey(serverKey string) string {
	return fmt.Sprintf("token-%s", serverKey)
}

// Open returns a keyring-backed store for the given server, or a no-op
// store when no keyring backend is reachable (headless CI, containers).
// Callers can treat the result uniformly; the no-op store never errors.
func Open(serverKey string, logger zerolog.Logger) Store {
	if _, err := keyring.Get(service, probeKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug().Msg("no keyring backend available, session tokens will not be persisted")
		return Noop{}
	}
	return &keyringStore{serverKey: serverKey}
}

// keyringStore persists the token in the OS keychain/credential manager.
type keyringStore struct {
	serverKey string
}

func (s *keyringStore) Get() (string, bool, error) {
	token, err := keyring.Get(service, getKeyringKey(s.serverKey))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load token: %w", err)
	}
	return token, true, nil
}

func (s *keyringStore) Set(token string) error {
	if err := keyring.Set(service, getKeyringKey(s.serverKey), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (s *keyringStore) Clear() error {
	if err := keyring.Delete(service, getKeyringKey(s.serverKey)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Noop is the store used where no persistent backend exists. Get reports
// absent and writes are discarded; none of the methods can fail.
type Noop struct{}

func (Noop) Get() (string, bool, error) { return "", false, nil }
func (Noop) Set(string) error           { return nil }
func (Noop) Clear() error               { return nil }

// Layered keeps the artifact in memory for the life of the process and
// mirrors writes to a persistent backend. Reads hit the backend once, on
// first use; after that the in-process copy is authoritative. With a Noop
// backend this gives a session that lives exactly as long as the process.
type Layered struct {
	mu     sync.Mutex
	back   Store
	cached bool
	token  string
	ok     bool
}

func NewLayered(back Store) *Layered {
	return &Layered{back: back}
}

func (l *Layered) Get() (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cached {
		token, ok, err := l.back.Get()
		if err != nil {
			return "", false, err
		}
		l.token, l.ok, l.cached = token, ok, true
	}
	return l.token, l.ok, nil
}

func (l *Layered) Set(token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token, l.ok, l.cached = token, true, true
	return l.back.Set(token)
}

func (l *Layered) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token, l.ok, l.cached = "", false, true
	return l.back.Clear()
}

// Memory is an in-memory store for tests.
type Memory struct {
	token string
	set   bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get() (string, bool, error) {
	return m.token, m.set, nil
}

func (m *Memory) Set(token string) error {
	m.token = token
	m.set = true
	return nil
}

func (m *Memory) Clear() error {
	m.token = ""
	m.set = false
	return nil
}
