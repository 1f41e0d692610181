package api

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/internal/appctl/client"
	"github.com/sorenmh/appsmith/lifecycle"
	"github.com/sorenmh/appsmith/models"
	"github.com/sorenmh/appsmith/state"
	"github.com/sorenmh/appsmith/views"
)

type navLog struct {
	mu   sync.Mutex
	dest []lifecycle.Destination
}

func (n *navLog) Navigate(dest lifecycle.Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dest = append(n.dest, dest)
}

type noticeLog struct {
	mu      sync.Mutex
	notices []lifecycle.Notice
}

func (n *noticeLog) Notify(notice lifecycle.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

type session struct {
	env     *testEnv
	client  *client.Client
	bus     *events.Bus
	store   *state.Store
	nav     *navLog
	notices *noticeLog
	coord   *lifecycle.Coordinator
}

func newSession(t *testing.T, env *testEnv, isManager bool) *session {
	httpServer := httptest.NewServer(env.server.Handler())
	t.Cleanup(httpServer.Close)

	store, err := state.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := &session{
		env:     env,
		client:  client.NewClient(httpServer.URL, testAPIKey),
		bus:     events.NewBus(),
		store:   store,
		nav:     &navLog{},
		notices: &noticeLog{},
	}
	s.coord = lifecycle.NewCoordinator(lifecycle.Deps{
		Client:    s.client,
		Bus:       s.bus,
		Flags:     store,
		Navigator: s.nav,
		Notifier:  s.notices,
		Session:   lifecycle.Session{IsManager: isManager},
	})
	return s
}

func TestLifecycle_DeleteFromDetail(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t, 0)
	app := env.create(t, "A", models.ModeChat)
	s := newSession(t, env, true)

	list := views.NewAppList(s.client, s.store, s.bus)
	require.NoError(t, list.Mount(ctx))
	defer list.Unmount()
	usage := views.NewPlanUsage(s.client, s.bus)
	require.NoError(t, usage.Mount(ctx))
	defer usage.Unmount()
	assert.Equal(t, 1, usage.Usage().Apps)

	_, opened := s.coord.OpenSettings(ctx, app.ID)
	require.True(t, opened.OK())

	s.coord.RequestDelete(app.ID, lifecycle.SurfaceDetail)
	outcome := s.coord.ConfirmDelete(ctx)
	require.True(t, outcome.OK(), outcome.Reason)

	assert.Equal(t, []lifecycle.Destination{lifecycle.ListRoot}, s.nav.dest)

	_, err := s.client.FetchDetail(ctx, app.ID)
	assert.Equal(t, failure.KindNotFound, failure.KindOf(err))

	refreshed, err := list.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Empty(t, list.Apps())

	refreshed, err = usage.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 0, usage.Usage().Apps)
}

func TestLifecycle_DuplicateAsViewer(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t, 0)
	source := env.create(t, "B", models.ModeWorkflow)
	s := newSession(t, env, false)

	outcome := s.coord.RequestDuplicate(ctx, source.ID, lifecycle.DuplicateInput{
		Name:           "B-copy",
		Icon:           "sparkles",
		IconBackground: "#D5F5F6",
	})
	require.True(t, outcome.OK(), outcome.Reason)
	assert.Equal(t, "B-copy", outcome.App.Name)
	assert.Equal(t, models.ModeWorkflow, outcome.App.Mode)
	assert.Equal(t, []lifecycle.Destination{lifecycle.Destination("/app/" + outcome.App.ID + "/overview")}, s.nav.dest)

	// A list mounted after the duplicate still sees the flag
	list := views.NewAppList(s.client, s.store, s.bus)
	require.NoError(t, list.Mount(ctx))
	defer list.Unmount()
	assert.Len(t, list.Apps(), 2)

	_, ok, err := s.store.GetFlag(ctx, lifecycle.NeedRefreshAppListKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLifecycle_EditTooLong(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t, 0)
	app := env.create(t, "Alpha", models.ModeChat)
	s := newSession(t, env, true)

	_, err := s.coord.Loader().Load(ctx, app.ID)
	require.NoError(t, err)

	outcome := s.coord.RequestEdit(ctx, app.ID, models.UpdateInfoRequest{Name: strings.Repeat("n", 41)})
	assert.Equal(t, lifecycle.StatusFailure, outcome.Status)
	assert.Equal(t, failure.KindValidation, outcome.Kind)
	assert.Contains(t, outcome.Reason, "too long")

	require.NotEmpty(t, s.notices.notices)
	last := s.notices.notices[len(s.notices.notices)-1]
	assert.Equal(t, lifecycle.LevelError, last.Level)
	assert.Contains(t, last.Message, "too long")

	held, ok := s.coord.Loader().Held(app.ID)
	require.True(t, ok)
	assert.Equal(t, "Alpha", held.Name)
}

func TestLifecycle_ExportIsStable(t *testing.T) {
	ctx := context.Background()
	env := setupTestServer(t, 0)
	app := env.create(t, "Alpha", models.ModeAgentChat)
	s := newSession(t, env, true)

	first := s.coord.RequestExport(ctx, app.ID)
	second := s.coord.RequestExport(ctx, app.ID)
	require.True(t, first.OK(), first.Reason)
	require.True(t, second.OK(), second.Reason)

	assert.Equal(t, "Alpha.yml", first.Artifact.Filename)
	assert.Equal(t, lifecycle.ExportContentType, first.Artifact.ContentType)
	assert.Equal(t, first.Artifact.Data, second.Artifact.Data)
}
