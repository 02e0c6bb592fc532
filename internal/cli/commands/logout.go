package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogout(serverAlias string) error {
	client, server, err := newSessionClient(serverAlias)
	if err != nil {
		return err
	}
	defer client.Close()

	// Safe to run when no session exists; logout is idempotent.
	if err := client.Logout(context.Background()); err != nil {
		return err
	}

	fmt.Printf("✓ Logged out of %s (%s)\n", server.Alias, server.URL)
	return nil
}
