package commands

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trainlog-dev/trainlog/internal/session"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var username, email, password, serverAlias string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new TrainLog account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(username, email, password, serverAlias, isAdmin)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username for the new account")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the new account")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Create an administrator account")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runRegister(username, email, password, serverAlias string, isAdmin bool) error {
	if username == "" {
		return fmt.Errorf("username is required (use --username flag)")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag)")
		}
	}

	client, server, err := newSessionClient(serverAlias)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Register(context.Background(), session.RegisterParams{
		Username: username,
		Email:    email,
		Password: password,
		IsAdmin:  isAdmin,
	})
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Printf("✓ Account '%s' created on %s (%s)\n", username, server.Alias, server.URL)
	fmt.Println("\nNext step: run 'trainlog login' to authenticate")
	return nil
}
