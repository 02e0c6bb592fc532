package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trainlog-dev/trainlog/internal/cli/config"
	"github.com/trainlog-dev/trainlog/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a TrainLog server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(username, password, serverAlias)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set TRAINLOG_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TRAINLOG_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogin(username, password, serverAlias string) error {
	// Check for environment variables (useful for CI/CD)
	config.LoadEnv()
	if username == "" {
		username = os.Getenv("TRAINLOG_USERNAME")
	}
	if password == "" {
		password = os.Getenv("TRAINLOG_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or TRAINLOG_USERNAME env var)")
	}

	client, server, err := newSessionClient(serverAlias)
	if err != nil {
		return err
	}
	defer client.Close()

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TRAINLOG_PASSWORD env var)")
		}
	}

	fmt.Printf("Logging in to %s (%s)...\n", server.Alias, server.URL)

	user, err := client.Login(context.Background(), username, password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", user.DisplayName(), user.Username)
	if user.IsAdmin {
		fmt.Println("  Role: Admin")
	}
	fmt.Printf("  Landing view: %s\n", session.RouteFor(*user))

	return nil
}
