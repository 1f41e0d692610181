package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sorenmh/appsmith/internal/appctl/output"
	"github.com/sorenmh/appsmith/lifecycle"
	"github.com/sorenmh/appsmith/models"
	"github.com/sorenmh/appsmith/views"
)

func newAppCmd() *cobra.Command {
	appCmd := &cobra.Command{
		Use:   "app",
		Short: "Manage applications",
		Long:  `Create, list, inspect, change and remove applications.`,
	}

	appCmd.AddCommand(newAppListCmd())
	appCmd.AddCommand(newAppShowCmd())
	appCmd.AddCommand(newAppCreateCmd())
	appCmd.AddCommand(newAppEditCmd())
	appCmd.AddCommand(newAppSettingsCmd())
	appCmd.AddCommand(newAppDuplicateCmd())
	appCmd.AddCommand(newAppExportCmd())
	appCmd.AddCommand(newAppDeleteCmd())
	return appCmd
}

func newAppListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all applications",
		Long: `List all applications.

The list is refetched when an earlier duplicate asked for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			list := views.NewAppList(s.client, s.store, s.bus)
			if err := list.Mount(cmd.Context()); err != nil {
				return err
			}
			defer list.Unmount()

			apps := list.Apps()
			if len(apps) == 0 && s.format == output.FormatTable {
				output.Info(s.out, "No applications found")
				return nil
			}

			resp := models.ListAppsResponse{Apps: apps, Total: list.Total(), Limit: views.PageSize}
			return output.Print(s.out, s.format, resp, func(w io.Writer) {
				rows := make([][]string, 0, len(apps))
				for _, app := range apps {
					rows = append(rows, []string{app.Name, app.ID, string(app.Mode), output.FormatTime(app.CreatedAt)})
				}
				output.PrintTable(w, []string{"NAME", "ID", "MODE", "CREATED"}, rows)
			})
		},
	}
}

func newAppShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name|id]",
		Short: "Show application details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			app, err := s.target(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			return s.printApp(app)
		},
	}
}

func newAppCreateCmd() *cobra.Command {
	var req models.CreateAppRequest

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new application",
		Long: `Create a new application.

Example:
  appctl app create support-bot --mode chat
  appctl app create --name triage --mode workflow --icon robot --icon-background "#FFEAD5"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				req.Name = args[0]
			}
			if req.Name == "" {
				return fmt.Errorf("application name is required")
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			app, err := s.client.CreateApplication(cmd.Context(), &req)
			if err != nil {
				return err
			}

			output.Success(s.out, lifecycle.MsgAppCreated)
			if err := s.store.SetFlag(cmd.Context(), lifecycle.NeedRefreshAppListKey, "1"); err != nil {
				return err
			}
			s.nav.Navigate(lifecycle.Resolve(s.manager, app))
			return s.printApp(app)
		},
	}

	createCmd.Flags().StringVar(&req.Name, "name", "", "Application name")
	createCmd.Flags().StringVar((*string)(&req.Mode), "mode", string(models.ModeChat), "Application mode (completion, chat, agent-chat, advanced-chat, workflow)")
	createCmd.Flags().StringVar(&req.Description, "description", "", "Application description")
	createCmd.Flags().StringVar(&req.Icon, "icon", "", "Icon name")
	createCmd.Flags().StringVar(&req.IconBackground, "icon-background", "", "Icon background color (#RRGGBB)")
	return createCmd
}
