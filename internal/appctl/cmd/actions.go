package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorenmh/appsmith/internal/appctl/output"
	"github.com/sorenmh/appsmith/lifecycle"
	"github.com/sorenmh/appsmith/models"
)

func newAppEditCmd() *cobra.Command {
	var name, icon, iconBackground, description string

	editCmd := &cobra.Command{
		Use:   "edit [name|id]",
		Short: "Edit the name, icon and description of an application",
		Long: `Edit the name, icon and description of an application.

Fields without a flag keep their current value.

Example:
  appctl app edit support-bot --name support-assistant --icon-background "#E0F2FE"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			app, err := s.target(cmd.Context(), args[0], lifecycle.KindEdit)
			if err != nil {
				return err
			}

			patch := models.UpdateInfoRequest{
				Name:           app.Name,
				Icon:           app.Icon,
				IconBackground: app.IconBackground,
				Description:    app.Description,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = name
			}
			if flags.Changed("icon") {
				patch.Icon = icon
			}
			if flags.Changed("icon-background") {
				patch.IconBackground = iconBackground
			}
			if flags.Changed("description") {
				patch.Description = description
			}

			outcome := s.coord.RequestEdit(cmd.Context(), app.ID, patch)
			if err := result(outcome); err != nil {
				return err
			}
			return s.printApp(outcome.App)
		},
	}

	editCmd.Flags().StringVar(&name, "name", "", "New name")
	editCmd.Flags().StringVar(&icon, "icon", "", "New icon")
	editCmd.Flags().StringVar(&iconBackground, "icon-background", "", "New icon background color (#RRGGBB)")
	editCmd.Flags().StringVar(&description, "description", "", "New description")
	return editCmd
}

func newAppSettingsCmd() *cobra.Command {
	var (
		title, description, language, theme string
		copyright, privacyPolicy, disclaimer string
		themeInverted, showSteps             bool
	)

	settingsCmd := &cobra.Command{
		Use:   "settings [name|id]",
		Short: "Change the site settings of an application",
		Long: `Change the public site settings of an application.

Only the settings given as flags are changed.

Example:
  appctl app settings support-bot --title "Support" --language en-US`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.client.ResolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			app, opened := s.coord.OpenSettings(cmd.Context(), id)
			if err := result(opened); err != nil {
				return err
			}

			var params models.SiteConfigParams
			flags := cmd.Flags()
			set := func(flag string, dst **string, v *string) {
				if flags.Changed(flag) {
					*dst = v
				}
			}
			set("title", &params.Title, &title)
			set("description", &params.Description, &description)
			set("language", &params.DefaultLanguage, &language)
			set("theme", &params.ChatColorTheme, &theme)
			set("copyright", &params.Copyright, &copyright)
			set("privacy-policy", &params.PrivacyPolicy, &privacyPolicy)
			set("disclaimer", &params.CustomDisclaimer, &disclaimer)
			if flags.Changed("theme-inverted") {
				params.ChatColorThemeInverted = &themeInverted
			}
			if flags.Changed("show-workflow-steps") {
				params.ShowWorkflowSteps = &showSteps
			}

			if params == (models.SiteConfigParams{}) {
				return fmt.Errorf("no settings given")
			}

			outcome := s.coord.RequestSettingsUpdate(cmd.Context(), app.ID, params)
			if err := result(outcome); err != nil {
				return err
			}
			return s.printApp(outcome.App)
		},
	}

	f := settingsCmd.Flags()
	f.StringVar(&title, "title", "", "Site title")
	f.StringVar(&description, "description", "", "Site description")
	f.StringVar(&language, "language", "", "Default language (BCP 47 tag)")
	f.StringVar(&theme, "theme", "", "Chat color theme (#RRGGBB)")
	f.BoolVar(&themeInverted, "theme-inverted", false, "Invert the chat color theme")
	f.StringVar(&copyright, "copyright", "", "Copyright notice")
	f.StringVar(&privacyPolicy, "privacy-policy", "", "Privacy policy URL")
	f.StringVar(&disclaimer, "disclaimer", "", "Custom disclaimer")
	f.BoolVar(&showSteps, "show-workflow-steps", false, "Show workflow steps")
	return settingsCmd
}

func newAppDuplicateCmd() *cobra.Command {
	var in lifecycle.DuplicateInput

	duplicateCmd := &cobra.Command{
		Use:   "duplicate [name|id]",
		Short: "Duplicate an application",
		Long: `Create a copy of an application under a new name and icon.

The copy has the mode of the source. Completion applications cannot be
duplicated.

Example:
  appctl app duplicate support-bot --name support-bot-v2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			source, err := s.target(cmd.Context(), args[0], lifecycle.KindDuplicate)
			if err != nil {
				return err
			}

			if in.Name == "" {
				in.Name = source.Name + " copy"
			}
			if !cmd.Flags().Changed("icon") {
				in.Icon = source.Icon
			}
			if !cmd.Flags().Changed("icon-background") {
				in.IconBackground = source.IconBackground
			}

			outcome := s.coord.RequestDuplicate(cmd.Context(), source.ID, in)
			if err := result(outcome); err != nil {
				return err
			}
			return s.printApp(outcome.App)
		},
	}

	duplicateCmd.Flags().StringVar(&in.Name, "name", "", "Name of the copy (default \"<name> copy\")")
	duplicateCmd.Flags().StringVar(&in.Icon, "icon", "", "Icon of the copy (default is the source icon)")
	duplicateCmd.Flags().StringVar(&in.IconBackground, "icon-background", "", "Icon background of the copy (default is the source background)")
	return duplicateCmd
}

func newAppExportCmd() *cobra.Command {
	var file string

	exportCmd := &cobra.Command{
		Use:   "export [name|id]",
		Short: "Export the configuration of an application",
		Long: `Export the configuration snapshot of an application as YAML.

The snapshot is written to "<name>.yml" in the current directory unless
--file is given. Use --file - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			app, err := s.target(cmd.Context(), args[0], lifecycle.KindExport)
			if err != nil {
				return err
			}

			outcome := s.coord.RequestExport(cmd.Context(), app.ID)
			if err := result(outcome); err != nil {
				return err
			}

			artifact := outcome.Artifact
			if file == "-" {
				_, err := s.out.Write(artifact.Data)
				return err
			}

			path := file
			if path == "" {
				path = artifact.Filename
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create directory: %w", err)
				}
			}
			if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			output.Success(s.out, fmt.Sprintf("Exported %s to %s", app.Name, path))
			return nil
		},
	}

	exportCmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default \"<name>.yml\")")
	return exportCmd
}

func newAppDeleteCmd() *cobra.Command {
	var yes bool
	var from string

	deleteCmd := &cobra.Command{
		Use:   "delete [name|id]",
		Short: "Delete an application",
		Long: `Delete an application after confirmation.

Deleting from the detail surface sends the session back to the list.

Example:
  appctl app delete support-bot
  appctl app delete support-bot --yes --from detail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var surface lifecycle.Surface
			switch from {
			case "list":
				surface = lifecycle.SurfaceList
			case "detail":
				surface = lifecycle.SurfaceDetail
			default:
				return fmt.Errorf("unknown surface %q (use list or detail)", from)
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			app, err := s.target(cmd.Context(), args[0], lifecycle.KindDelete)
			if err != nil {
				return err
			}

			s.coord.RequestDelete(app.ID, surface)

			if !yes {
				fmt.Fprintf(s.out, "Delete application %q (%s)? This cannot be undone. [y/N]: ", app.Name, app.ID)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					s.coord.CancelDelete()
					output.Info(s.out, "Cancelled")
					return nil
				}
			}

			return result(s.coord.ConfirmDelete(cmd.Context()))
		},
	}

	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	deleteCmd.Flags().StringVar(&from, "from", "list", "Surface the delete is issued from (list, detail)")
	return deleteCmd
}
