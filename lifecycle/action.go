// Package lifecycle coordinates the actions a management surface can take on
// an application: edit, settings update, duplicate, export and delete. Each
// action runs its remote call, then updates the held detail, publishes
// refresh events, sets the durable refresh flag and navigates as needed, and
// finally reports feedback through a Notifier.
package lifecycle

import (
	"context"

	"github.com/sorenmh/appsmith/events"
	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/models"
)

// Kind identifies an action
type Kind string

const (
	KindEdit      Kind = "edit"
	KindSettings  Kind = "settings"
	KindDuplicate Kind = "duplicate"
	KindExport    Kind = "export"
	KindDelete    Kind = "delete"
)

// Available returns the actions offered for an application of the given mode.
// Completion apps cannot be duplicated or exported.
func Available(mode models.Mode) []Kind {
	if mode == models.ModeCompletion {
		return []Kind{KindEdit, KindSettings, KindDelete}
	}
	return []Kind{KindEdit, KindSettings, KindDuplicate, KindExport, KindDelete}
}

// Offers reports whether kind is offered for mode
func Offers(mode models.Mode, kind Kind) bool {
	for _, k := range Available(mode) {
		if k == kind {
			return true
		}
	}
	return false
}

// Phase is the state of one action for one application
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// Status is the result of a coordinator call
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	// StatusSkipped means nothing ran: the same action was already in flight
	// for the application, or there was no confirmed delete to run.
	StatusSkipped Status = "skipped"
)

// Artifact is a downloadable export
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportContentType is the MIME type of exported snapshots
const ExportContentType = "application/yaml"

// NewArtifact wraps exported bytes for an application named name
func NewArtifact(name string, data []byte) *Artifact {
	return &Artifact{
		Filename:    name + ".yml",
		ContentType: ExportContentType,
		Data:        data,
	}
}

// Outcome is what a coordinator call reports back to its surface
type Outcome struct {
	Status   Status
	App      *models.Application
	Artifact *Artifact
	// Reason is the user-displayable failure message
	Reason string
	Kind   failure.Kind
	Err    error
}

// OK reports whether the action succeeded
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Surface is where an action was triggered from
type Surface int

const (
	// SurfaceList is a list entry such as an application card
	SurfaceList Surface = iota
	// SurfaceDetail is the view of the currently open application
	SurfaceDetail
)

func (s Surface) String() string {
	if s == SurfaceDetail {
		return "detail"
	}
	return "list"
}

// Level is the severity of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is user feedback emitted by the coordinator
type Notice struct {
	Level   Level
	Message string
}

// ResourceClient performs the remote operations on applications. Every call
// resolves to a result or an error classified by the failure package.
type ResourceClient interface {
	FetchDetail(ctx context.Context, id string) (*models.Application, error)
	UpdateInfo(ctx context.Context, id string, req *models.UpdateInfoRequest) (*models.Application, error)
	UpdateSiteConfig(ctx context.Context, id string, params *models.SiteConfigParams) error
	Duplicate(ctx context.Context, id string, req *models.DuplicateRequest) (*models.Application, error)
	Export(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Publisher delivers refresh events to mounted views
type Publisher interface {
	Publish(ev events.Event)
}

// FlagStore persists the cross-view refresh flag
type FlagStore interface {
	SetFlag(ctx context.Context, key, value string) error
}

// Navigator moves the session to a destination
type Navigator interface {
	Navigate(dest Destination)
}

// Notifier shows feedback to the user
type Notifier interface {
	Notify(n Notice)
}

// PhaseChange is reported to an observer on every phase transition
type PhaseChange struct {
	AppID string
	Kind  Kind
	Phase Phase
}

// Session describes the user driving the coordinator
type Session struct {
	IsManager bool
}
