package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sorenmh/appsmith/internal/appctl/output"
	"github.com/sorenmh/appsmith/internal/shared/config"
	"github.com/sorenmh/appsmith/views"
)

// Version information, set at build time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show plan usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			plan := views.NewPlanUsage(s.client, s.bus)
			if err := plan.Mount(cmd.Context()); err != nil {
				return err
			}
			defer plan.Unmount()

			usage := plan.Usage()
			return output.Print(s.out, s.format, usage, func(w io.Writer) {
				limit := "unlimited"
				if usage.AppLimit > 0 {
					limit = fmt.Sprintf("%d", usage.AppLimit)
				}
				output.PrintTable(w, []string{"APPS", "LIMIT"}, [][]string{{fmt.Sprintf("%d", usage.Apps), limit}})
			})
		},
	}
}

func newConfigureCmd() *cobra.Command {
	var url, apiKey string
	var manager bool

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure appctl settings interactively",
		Long: `Configure appctl settings interactively or via command line flags.

The settings are saved to ~/.appsmith/config.yaml.

Example:
  appctl configure
  appctl configure --url https://appsd.example.com --api-key sk_live_abc123 --manager`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req *config.ConfigureRequest

			if url != "" && apiKey != "" {
				req = &config.ConfigureRequest{URL: url, APIKey: apiKey}
			} else {
				var err error
				req, err = config.ConfigureInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), viper.GetString("url"), viper.GetString("apiKey"))
				if err != nil {
					return err
				}
				if url != "" {
					req.URL = url
				}
				if apiKey != "" {
					req.APIKey = apiKey
				}
			}
			req.Manager = manager

			path, err := config.SaveConfig(*req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			output.Success(out, fmt.Sprintf("Configuration saved to %s", path))
			fmt.Fprintf(out, "  URL:     %s\n", req.URL)
			fmt.Fprintf(out, "  API Key: %s\n", config.MaskKey(req.APIKey))
			fmt.Fprintf(out, "  Manager: %t\n", req.Manager)
			return nil
		},
	}

	configureCmd.Flags().StringVar(&url, "url", "", "appsd API endpoint")
	configureCmd.Flags().StringVar(&apiKey, "api-key", "", "appsd API key")
	configureCmd.Flags().BoolVar(&manager, "manager", false, "act as a workspace manager")
	return configureCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the appctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "appctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
