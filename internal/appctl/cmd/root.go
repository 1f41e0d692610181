package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sorenmh/appsmith/internal/shared/config"
)

// errReported is returned when a failure notice was already printed
var errReported = errors.New("action failed")

var outputFormat string

// NewRootCmd builds the appctl command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appctl",
		Short: "Manage applications hosted by appsd",
		Long: `appctl is a command-line tool for managing appsd applications.

It allows you to:
  - List, create and inspect applications
  - Edit application info and site settings
  - Duplicate and export applications
  - Delete applications after confirmation

Configuration:
  Environment variables:
    APPSMITH_URL        - appsd API endpoint (required)
    APPSMITH_APIKEY     - appsd API authentication key (required)
    APPSMITH_MANAGER    - act as a workspace manager

  Config file (~/.appsmith/config.yaml):
    url: https://appsd.example.com
    apiKey: sk_live_abc123
    manager: true

  CLI flags override environment variables and config file.

Example usage:
  appctl app list
  appctl app duplicate support-bot --name support-bot-v2
  appctl app export support-bot
  appctl app delete support-bot`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	config.AddFlags(rootCmd)
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")

	rootCmd.AddCommand(newAppCmd())
	rootCmd.AddCommand(newUsageCmd())
	rootCmd.AddCommand(newConfigureCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs appctl and prints errors that were not already reported
func Execute(ctx context.Context) error {
	config.InitConfig()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
