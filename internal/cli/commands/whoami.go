package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trainlog-dev/trainlog/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runWhoami(serverAlias string) error {
	client, server, err := newSessionClient(serverAlias)
	if err != nil {
		return err
	}
	defer client.Close()

	user, err := client.FetchCurrentUser(context.Background())
	if err != nil {
		return describeAuthError(err)
	}
	if user == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("Logged in to %s (%s)\n", server.Alias, server.URL)
	fmt.Printf("  User: %s (id %d)\n", user.Username, user.UserID)
	if name := user.DisplayName(); name != user.Username {
		fmt.Printf("  Name: %s\n", name)
	}
	if user.IsAdmin {
		fmt.Println("  Role: Admin")
	} else {
		fmt.Println("  Role: User")
	}
	fmt.Printf("  Landing view: %s\n", session.RouteFor(*user))

	return nil
}
