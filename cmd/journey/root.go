package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/journey/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "journey",
	Short:         "Journey runs multi-page user journeys declared as step graphs",
	Long:          `Journey serves a graph of steps over HTTP, routing users by prerequisites and transition rules.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", os.Getenv("JOURNEY_CONFIG"), "Path to the service config file")
	rootCmd.PersistentFlags().StringP("journey", "j", "", "Path to the journey file (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or text")
}

// loadConfig reads the config file and environment, then applies explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("journey"); v != "" {
		cfg.Journey = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
