package commands

import (
	"testing"

	"github.com/trainlog-dev/trainlog/internal/cli/config"
	"github.com/trainlog-dev/trainlog/internal/identitytest"
)

func TestWhoamiCommand_AfterLogin(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeBearer, identitytest.User{
		UserID: 1, Username: "admin1", Password: "correct", IsAdmin: true,
		FirstName: "Ada", LastName: "Admin",
	})
	setupTestEnvironment(t, config.Config{
		Servers: []config.Server{{Alias: "test-server", URL: svc.URL()}},
	})
	useMemoryStore(t)

	if err := runLogin("admin1", "correct", ""); err != nil {
		t.Fatalf("runLogin() error: %v", err)
	}
	if err := runWhoami(""); err != nil {
		t.Fatalf("runWhoami() error: %v", err)
	}
}

func TestWhoamiCommand_NotAuthenticated(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeBearer)
	setupTestEnvironment(t, config.Config{
		Servers: []config.Server{{Alias: "test-server", URL: svc.URL()}},
	})
	useMemoryStore(t)

	err := runWhoami("")
	if err == nil {
		t.Fatal("expected error when no session exists, got nil")
	}
	expectedError := "session expired. Run 'trainlog login' to authenticate again"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestWhoamiCommand_Detached(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeBearer)
	setupTestEnvironment(t, config.Config{
		Servers: []config.Server{{Alias: "test-server", URL: svc.URL()}},
	})
	useMemoryStore(t)
	t.Setenv("TRAINLOG_DETACHED", "1")

	// Degrades to "no user" silently; no network call goes out.
	if err := runWhoami(""); err != nil {
		t.Fatalf("runWhoami() in detached mode error: %v", err)
	}
	if svc.Requests() != 0 {
		t.Errorf("expected no requests in detached mode, got %d", svc.Requests())
	}
}

func TestLogoutCommand_Idempotent(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeBearer, identitytest.User{
		UserID: 1, Username: "admin1", Password: "correct", IsAdmin: true,
	})
	setupTestEnvironment(t, config.Config{
		Servers: []config.Server{{Alias: "test-server", URL: svc.URL()}},
	})
	mem := useMemoryStore(t)

	if err := runLogin("admin1", "correct", ""); err != nil {
		t.Fatalf("runLogin() error: %v", err)
	}

	if err := runLogout(""); err != nil {
		t.Fatalf("first runLogout() error: %v", err)
	}
	if _, ok, _ := mem.Get(); ok {
		t.Error("expected token to be cleared after logout")
	}

	// Logging out again must succeed too.
	if err := runLogout(""); err != nil {
		t.Fatalf("second runLogout() error: %v", err)
	}
}

func TestRegisterCommand_ThenLogin(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeBearer)
	setupTestEnvironment(t, config.Config{
		Servers: []config.Server{{Alias: "test-server", URL: svc.URL()}},
	})
	useMemoryStore(t)

	if err := runRegister("newuser", "new@example.com", "longenough", "", false); err != nil {
		t.Fatalf("runRegister() error: %v", err)
	}
	if !svc.HasUser("newuser") {
		t.Fatal("expected account to exist on the service after register")
	}

	if err := runLogin("newuser", "longenough", ""); err != nil {
		t.Fatalf("runLogin() after register error: %v", err)
	}
}

func TestCookieStrategyCommands(t *testing.T) {
	svc := identitytest.New(t, identitytest.ModeCookie, identitytest.User{
		UserID: 5, Username: "dana", Password: "pw123",
	})
	setupTestEnvironment(t, config.Config{
		Servers:      []config.Server{{Alias: "test-server", URL: svc.URL()}},
		AuthStrategy: config.StrategyCookie,
	})

	// The cookie strategy persists nothing client-side; each command runs
	// its own process-scoped session. Login must succeed end to end.
	if err := runLogin("dana", "pw123", ""); err != nil {
		t.Fatalf("runLogin() under cookie strategy error: %v", err)
	}
}
