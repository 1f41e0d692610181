package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/internal/appctl/client"
	"github.com/sorenmh/appsmith/internal/appctl/output"
	"github.com/sorenmh/appsmith/internal/shared/config"
	"github.com/sorenmh/appsmith/lifecycle"
	"github.com/sorenmh/appsmith/models"
	"github.com/sorenmh/appsmith/state"
)

// session is one appctl invocation: a client, the durable session state and
// a coordinator printing its notices
type session struct {
	client  *client.Client
	store   *state.Store
	bus     *events.Bus
	coord   *lifecycle.Coordinator
	nav     *output.Navigator
	format  output.Format
	manager bool
	out     io.Writer
	errOut  io.Writer
}

func openSession(cmd *cobra.Command) (*session, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	path, err := config.GetStatePath()
	if err != nil {
		return nil, err
	}
	store, err := state.New(path)
	if err != nil {
		return nil, err
	}

	s := &session{
		client:  client.NewClient(config.GetURL(), config.GetAPIKey()),
		store:   store,
		bus:     events.NewBus(),
		nav:     &output.Navigator{Out: cmd.OutOrStdout()},
		format:  format,
		manager: config.IsManager(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}
	s.coord = lifecycle.NewCoordinator(lifecycle.Deps{
		Client:    s.client,
		Bus:       s.bus,
		Flags:     store,
		Navigator: s.nav,
		Notifier:  &output.Notifier{Out: s.out, Err: s.errOut},
		Session:   lifecycle.Session{IsManager: s.manager},
	})
	return s, nil
}

func (s *session) Close() {
	s.store.Close()
}

// target resolves nameOrID and loads its detail. kind, when set, must be
// offered for the application's mode.
func (s *session) target(ctx context.Context, nameOrID string, kind lifecycle.Kind) (*models.Application, error) {
	id, err := s.client.ResolveID(ctx, nameOrID)
	if err != nil {
		return nil, err
	}

	app, err := s.coord.Loader().Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if kind != "" && !lifecycle.Offers(app.Mode, kind) {
		return nil, fmt.Errorf("%s is not available for %s applications", kind, app.Mode)
	}
	return app, nil
}

// result turns a failed outcome into an error. The notifier has already
// printed the reason.
func result(outcome lifecycle.Outcome) error {
	switch outcome.Status {
	case lifecycle.StatusSuccess:
		return nil
	case lifecycle.StatusSkipped:
		return fmt.Errorf("action skipped")
	default:
		return errReported
	}
}

func (s *session) printApp(app *models.Application) error {
	if s.format != output.FormatTable {
		return output.Print(s.out, s.format, app, nil)
	}

	w := s.out
	fmt.Fprintf(w, "Application: %s\n\n", app.Name)
	fmt.Fprintf(w, "  ID:          %s\n", app.ID)
	fmt.Fprintf(w, "  Mode:        %s\n", app.Mode)
	fmt.Fprintf(w, "  Icon:        %s %s\n", app.Icon, app.IconBackground)
	if app.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", app.Description)
	}
	fmt.Fprintf(w, "  Created:     %s\n", output.FormatTime(app.CreatedAt))
	fmt.Fprintf(w, "  Updated:     %s\n", output.FormatTimeAgo(app.UpdatedAt))

	fmt.Fprintln(w, "\nSite:")
	fmt.Fprintf(w, "  Title:       %s\n", app.Site.Title)
	fmt.Fprintf(w, "  Language:    %s\n", app.Site.DefaultLanguage)

	actions := lifecycle.Available(app.Mode)
	names := make([]string, 0, len(actions))
	for _, k := range actions {
		names = append(names, string(k))
	}
	fmt.Fprintf(w, "\nActions:     %s\n", strings.Join(names, ", "))
	return nil
}
