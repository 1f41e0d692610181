package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/models"
)

// NeedRefreshAppListKey is the durable flag telling list views to refetch
const NeedRefreshAppListKey = "needRefreshAppList"

// Feedback messages
const (
	MsgEditDone       = "App updated"
	MsgEditFailed     = "Failed to update app"
	MsgSettingsDone   = "Modified successfully"
	MsgSettingsFailed = "Modify failed"
	MsgAppCreated     = "App created"
	MsgCreateFailed   = "Failed to create app"
	MsgExportFailed   = "Export failed"
	MsgAppDeleted     = "App deleted"
	MsgDeleteFailed   = "Failed to delete app"
)

// Deps are the collaborators of a Coordinator. Client is required; the rest
// may be nil.
type Deps struct {
	Client    ResourceClient
	Bus       Publisher
	Flags     FlagStore
	Navigator Navigator
	Notifier  Notifier
	Session   Session
	// OnPhase observes every phase transition
	OnPhase func(PhaseChange)
}

// DuplicateInput is the name and icon of a copy
type DuplicateInput struct {
	Name           string
	Icon           string
	IconBackground string
}

type actionKey struct {
	id   string
	kind Kind
}

// Coordinator runs application actions for one user session
type Coordinator struct {
	deps   Deps
	loader *DetailLoader
	gate   *Gate

	mu     sync.Mutex
	phases map[actionKey]Phase
}

// NewCoordinator creates a coordinator
func NewCoordinator(deps Deps) *Coordinator {
	c := &Coordinator{
		deps:   deps,
		gate:   NewGate(),
		phases: make(map[actionKey]Phase),
	}
	c.loader = NewDetailLoader(deps.Client.FetchDetail)
	return c
}

// Loader returns the session's detail loader
func (c *Coordinator) Loader() *DetailLoader {
	return c.loader
}

// State returns the current phase of kind for id
func (c *Coordinator) State(id string, kind Kind) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.phases[actionKey{id, kind}]; ok {
		return p
	}
	return PhaseIdle
}

// RequestEdit replaces the name, icon and description of id
func (c *Coordinator) RequestEdit(ctx context.Context, id string, patch models.UpdateInfoRequest) Outcome {
	if !c.begin(id, KindEdit) {
		return skipped()
	}
	defer c.finish(id, KindEdit)

	app, err := c.deps.Client.UpdateInfo(context.WithoutCancel(ctx), id, &patch)
	if err != nil {
		return c.fail(id, KindEdit, MsgEditFailed, err)
	}

	c.loader.Put(app)
	c.publish(events.TopicApps, events.ReasonUpdated, id)
	c.notify(LevelSuccess, MsgEditDone)
	c.settle(id, KindEdit, PhaseSuccess)
	return Outcome{Status: StatusSuccess, App: app}
}

// RequestSettingsUpdate changes the site config of id. Core metadata of a
// held detail is left alone.
func (c *Coordinator) RequestSettingsUpdate(ctx context.Context, id string, params models.SiteConfigParams) Outcome {
	if !c.begin(id, KindSettings) {
		return skipped()
	}
	defer c.finish(id, KindSettings)

	if err := c.deps.Client.UpdateSiteConfig(context.WithoutCancel(ctx), id, &params); err != nil {
		return c.fail(id, KindSettings, MsgSettingsFailed, err)
	}

	c.loader.Patch(id, func(app *models.Application) {
		app.Site = params.Apply(app.Site)
	})
	c.publish(events.TopicApps, events.ReasonSiteConfig, id)
	c.notify(LevelSuccess, MsgSettingsDone)
	c.settle(id, KindSettings, PhaseSuccess)

	app, _ := c.loader.Held(id)
	return Outcome{Status: StatusSuccess, App: app}
}

// RequestDuplicate copies id under a new name and icon, then navigates to
// the copy
func (c *Coordinator) RequestDuplicate(ctx context.Context, id string, in DuplicateInput) Outcome {
	if !c.begin(id, KindDuplicate) {
		return skipped()
	}
	defer c.finish(id, KindDuplicate)

	source, err := c.loader.Load(ctx, id)
	if err != nil {
		return c.fail(id, KindDuplicate, MsgCreateFailed, err)
	}

	req := &models.DuplicateRequest{
		Name:           in.Name,
		Icon:           in.Icon,
		IconBackground: in.IconBackground,
		Mode:           source.Mode,
	}
	app, err := c.deps.Client.Duplicate(context.WithoutCancel(ctx), id, req)
	if err != nil {
		return c.fail(id, KindDuplicate, MsgCreateFailed, err)
	}

	c.notify(LevelSuccess, MsgAppCreated)
	if c.deps.Flags != nil {
		if err := c.deps.Flags.SetFlag(context.WithoutCancel(ctx), NeedRefreshAppListKey, "1"); err != nil {
			log.Printf("Failed to set %s flag: %v", NeedRefreshAppListKey, err)
		}
	}
	c.publish(events.TopicApps, events.ReasonDuplicated, app.ID)
	c.publish(events.TopicPlan, events.ReasonDuplicated, app.ID)
	c.navigate(Resolve(c.deps.Session.IsManager, app))
	c.settle(id, KindDuplicate, PhaseSuccess)
	return Outcome{Status: StatusSuccess, App: app}
}

// RequestExport downloads the configuration snapshot of id as
// "<name>.yml"
func (c *Coordinator) RequestExport(ctx context.Context, id string) Outcome {
	if !c.begin(id, KindExport) {
		return skipped()
	}
	defer c.finish(id, KindExport)

	app, err := c.loader.Load(ctx, id)
	if err != nil {
		return c.fail(id, KindExport, MsgExportFailed, err)
	}

	data, err := c.deps.Client.Export(context.WithoutCancel(ctx), id)
	if err != nil {
		return c.fail(id, KindExport, MsgExportFailed, err)
	}

	c.settle(id, KindExport, PhaseSuccess)
	return Outcome{Status: StatusSuccess, App: app, Artifact: NewArtifact(app.Name, data)}
}

// RequestDelete asks for confirmation before deleting id. A delete already
// awaiting confirmation is replaced.
func (c *Coordinator) RequestDelete(id string, surface Surface) {
	if replaced := c.gate.Request(id, surface); replaced != "" {
		log.Printf("Delete of %s replaced by %s before confirmation", replaced, id)
	}
}

// PendingDelete returns the application awaiting delete confirmation
func (c *Coordinator) PendingDelete() (string, bool) {
	return c.gate.Pending()
}

// CancelDelete drops the pending delete. Nothing is sent.
func (c *Coordinator) CancelDelete() {
	c.gate.Cancel()
}

// DismissDelete is called when the confirmation surface goes away. It is
// the same as cancelling.
func (c *Coordinator) DismissDelete() {
	c.gate.Cancel()
}

// ConfirmDelete deletes the pending target. The gate is closed whatever the
// result.
func (c *Coordinator) ConfirmDelete(ctx context.Context) Outcome {
	id, surface, ok := c.gate.Confirm()
	if !ok {
		return skipped()
	}
	if !c.begin(id, KindDelete) {
		return skipped()
	}
	defer c.finish(id, KindDelete)

	if err := c.deps.Client.Delete(context.WithoutCancel(ctx), id); err != nil {
		return c.fail(id, KindDelete, MsgDeleteFailed, err)
	}

	c.loader.Forget(id)
	c.notify(LevelSuccess, MsgAppDeleted)
	c.publish(events.TopicApps, events.ReasonDeleted, id)
	c.publish(events.TopicPlan, events.ReasonDeleted, id)
	if surface == SurfaceDetail {
		c.navigate(ListRoot)
	}
	c.settle(id, KindDelete, PhaseSuccess)
	return Outcome{Status: StatusSuccess}
}

// OpenSettings loads the detail the settings surface needs. The surface must
// stay closed unless the outcome is a success.
func (c *Coordinator) OpenSettings(ctx context.Context, id string) (*models.Application, Outcome) {
	app, err := c.loader.Load(ctx, id)
	if err != nil {
		if failure.KindOf(err) == failure.KindNotFound {
			c.gone(id)
		}
		reason := failure.UserMessage(err)
		c.notify(LevelError, reason)
		return nil, Outcome{Status: StatusFailure, Reason: reason, Kind: failure.KindOf(err), Err: err}
	}
	return app, Outcome{Status: StatusSuccess, App: app}
}

// Leave drops the held detail of id when the session navigates away from it
func (c *Coordinator) Leave(id string) {
	c.loader.Forget(id)
}

func skipped() Outcome {
	return Outcome{Status: StatusSkipped}
}

func (c *Coordinator) begin(id string, kind Kind) bool {
	c.mu.Lock()
	key := actionKey{id, kind}
	if p, ok := c.phases[key]; ok && p != PhaseIdle {
		c.mu.Unlock()
		return false
	}
	c.phases[key] = PhaseLoading
	c.mu.Unlock()

	c.observe(id, kind, PhaseLoading)
	return true
}

func (c *Coordinator) settle(id string, kind Kind, phase Phase) {
	c.mu.Lock()
	c.phases[actionKey{id, kind}] = phase
	c.mu.Unlock()

	c.observe(id, kind, phase)
}

func (c *Coordinator) finish(id string, kind Kind) {
	c.mu.Lock()
	delete(c.phases, actionKey{id, kind})
	c.mu.Unlock()

	c.observe(id, kind, PhaseIdle)
}

func (c *Coordinator) fail(id string, kind Kind, prefix string, err error) Outcome {
	fk := failure.KindOf(err)
	if fk == failure.KindNotFound {
		c.gone(id)
	}

	reason := failure.UserMessage(err)
	c.notify(LevelError, fmt.Sprintf("%s: %s", prefix, reason))
	c.settle(id, kind, PhaseFailure)
	return Outcome{Status: StatusFailure, Reason: reason, Kind: fk, Err: err}
}

// gone drops every trace of an application the service no longer knows so
// mounted lists stop showing it
func (c *Coordinator) gone(id string) {
	c.loader.Forget(id)
	c.publish(events.TopicApps, events.ReasonDeleted, id)
}

func (c *Coordinator) observe(id string, kind Kind, phase Phase) {
	if c.deps.OnPhase != nil {
		c.deps.OnPhase(PhaseChange{AppID: id, Kind: kind, Phase: phase})
	}
}

func (c *Coordinator) publish(topic events.Topic, reason events.Reason, id string) {
	if c.deps.Bus != nil {
		c.deps.Bus.Publish(events.Event{Topic: topic, Reason: reason, AppID: id})
	}
}

func (c *Coordinator) notify(level Level, msg string) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Notify(Notice{Level: level, Message: msg})
	}
}

func (c *Coordinator) navigate(dest Destination) {
	if c.deps.Navigator != nil {
		c.deps.Navigator.Navigate(dest)
	}
}
