package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trainlog-dev/trainlog/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a TrainLog server to the project configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0], strategy)
		},
	}

	cmd.Flags().StringVar(&strategy, "auth-strategy", "", "Session strategy: bearer or cookie (defaults to bearer)")

	return cmd
}

func runInit(serverURL, strategy string) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Println("Found existing trainlog.json")
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if strategy != "" {
		if strategy != config.StrategyBearer && strategy != config.StrategyCookie {
			return fmt.Errorf("invalid auth strategy '%s', must be 'bearer' or 'cookie'", strategy)
		}
		cfg.AuthStrategy = strategy
	}

	// Check if server already exists
	serverExists := false
	for _, server := range cfg.Servers {
		if server.URL == serverURL {
			serverExists = true
			break
		}
	}

	if serverExists {
		fmt.Printf("Server %s already exists in trainlog.json\n", serverURL)
	} else {
		alias := "production"
		if len(cfg.Servers) > 0 {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}

		cfg.Servers = append(cfg.Servers, config.Server{
			URL:   serverURL,
			Alias: alias,
		})

		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Printf("✓ Created ./trainlog.json with server %s (%s)\n", serverURL, alias)
		} else {
			fmt.Printf("✓ Added server %s (%s) to ./trainlog.json\n", serverURL, alias)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'trainlog register' to create an account (or skip if you have one)")
	fmt.Println("  2. Run 'trainlog login' to authenticate")

	return nil
}
