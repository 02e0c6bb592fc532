package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/trainlog-dev/trainlog/internal/session"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open your dashboard in the browser",
		Long: `Open your dashboard in the browser.

The landing view depends on your role: administrators land on the admin
dashboard, everyone else on the user dashboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runDash(serverAlias string) error {
	client, server, err := newSessionClient(serverAlias)
	if err != nil {
		return err
	}
	defer client.Close()

	// Resolve the identity first: the destination depends on the role.
	user, err := client.FetchCurrentUser(context.Background())
	if err != nil {
		return describeAuthError(err)
	}
	if user == nil {
		return fmt.Errorf("not logged in. Run 'trainlog login' first")
	}

	dest := session.RouteFor(*user)
	dashboardURL := client.BaseURL() + dest.Path()

	fmt.Printf("Opening %s for %s (%s)...\n", dest, server.Alias, server.URL)
	fmt.Printf("URL: %s\n", dashboardURL)

	if err := openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
