package models

import "time"

// Mode is the behavioral type of an application. It is fixed at creation.
type Mode string

const (
	ModeCompletion   Mode = "completion"
	ModeChat         Mode = "chat"
	ModeAgentChat    Mode = "agent-chat"
	ModeAdvancedChat Mode = "advanced-chat"
	ModeWorkflow     Mode = "workflow"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeCompletion, ModeChat, ModeAgentChat, ModeAdvancedChat, ModeWorkflow}

// IsValid checks if the mode is supported
func (m Mode) IsValid() bool {
	switch m {
	case ModeCompletion, ModeChat, ModeAgentChat, ModeAdvancedChat, ModeWorkflow:
		return true
	default:
		return false
	}
}

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// SiteConfig holds the public site display and branding settings of an application.
type SiteConfig struct {
	Title                  string `json:"title" yaml:"title"`
	Description            string `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultLanguage        string `json:"default_language" yaml:"default_language"`
	ChatColorTheme         string `json:"chat_color_theme,omitempty" yaml:"chat_color_theme,omitempty"`
	ChatColorThemeInverted bool   `json:"chat_color_theme_inverted" yaml:"chat_color_theme_inverted"`
	Copyright              string `json:"copyright,omitempty" yaml:"copyright,omitempty"`
	PrivacyPolicy          string `json:"privacy_policy,omitempty" yaml:"privacy_policy,omitempty"`
	CustomDisclaimer       string `json:"custom_disclaimer,omitempty" yaml:"custom_disclaimer,omitempty"`
	ShowWorkflowSteps      bool   `json:"show_workflow_steps" yaml:"show_workflow_steps"`
}

// Application is the managed resource.
type Application struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Icon           string     `json:"icon"`
	IconBackground string     `json:"icon_background"`
	Mode           Mode       `json:"mode"`
	Site           SiteConfig `json:"site"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateAppRequest is the request to create a new application
type CreateAppRequest struct {
	Name           string `json:"name" validate:"required,max=40"`
	Description    string `json:"description" validate:"max=400"`
	Icon           string `json:"icon" validate:"max=64"`
	IconBackground string `json:"icon_background" validate:"omitempty,icon_background"`
	Mode           Mode   `json:"mode" validate:"required,app_mode"`
}

// UpdateInfoRequest replaces the core metadata of an application.
type UpdateInfoRequest struct {
	Name           string `json:"name" validate:"required,max=40"`
	Icon           string `json:"icon" validate:"max=64"`
	IconBackground string `json:"icon_background" validate:"omitempty,icon_background"`
	Description    string `json:"description" validate:"max=400"`
}

// DuplicateRequest creates a copy of an application under a new name and icon.
// Mode must equal the source application's mode.
type DuplicateRequest struct {
	Name           string `json:"name" validate:"required,max=40"`
	Icon           string `json:"icon" validate:"max=64"`
	IconBackground string `json:"icon_background" validate:"omitempty,icon_background"`
	Mode           Mode   `json:"mode" validate:"omitempty,app_mode"`
}

// SiteConfigParams is a partial site config update. Nil fields are left unchanged.
type SiteConfigParams struct {
	Title                  *string `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description            *string `json:"description,omitempty" validate:"omitempty,max=400"`
	DefaultLanguage        *string `json:"default_language,omitempty" validate:"omitempty,bcp47_language_tag"`
	ChatColorTheme         *string `json:"chat_color_theme,omitempty" validate:"omitempty,icon_background"`
	ChatColorThemeInverted *bool   `json:"chat_color_theme_inverted,omitempty"`
	Copyright              *string `json:"copyright,omitempty" validate:"omitempty,max=120"`
	PrivacyPolicy          *string `json:"privacy_policy,omitempty" validate:"omitempty,url"`
	CustomDisclaimer       *string `json:"custom_disclaimer,omitempty" validate:"omitempty,max=512"`
	ShowWorkflowSteps      *bool   `json:"show_workflow_steps,omitempty"`
}

// Apply returns a copy of site with every provided param applied.
func (p SiteConfigParams) Apply(site SiteConfig) SiteConfig {
	if p.Title != nil {
		site.Title = *p.Title
	}
	if p.Description != nil {
		site.Description = *p.Description
	}
	if p.DefaultLanguage != nil {
		site.DefaultLanguage = *p.DefaultLanguage
	}
	if p.ChatColorTheme != nil {
		site.ChatColorTheme = *p.ChatColorTheme
	}
	if p.ChatColorThemeInverted != nil {
		site.ChatColorThemeInverted = *p.ChatColorThemeInverted
	}
	if p.Copyright != nil {
		site.Copyright = *p.Copyright
	}
	if p.PrivacyPolicy != nil {
		site.PrivacyPolicy = *p.PrivacyPolicy
	}
	if p.CustomDisclaimer != nil {
		site.CustomDisclaimer = *p.CustomDisclaimer
	}
	if p.ShowWorkflowSteps != nil {
		site.ShowWorkflowSteps = *p.ShowWorkflowSteps
	}
	return site
}

// ListAppsResponse is the response for listing applications
type ListAppsResponse struct {
	Apps   []Application `json:"apps"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ExportResponse carries an exported configuration snapshot.
type ExportResponse struct {
	Data string `json:"data"`
}

// UsageResponse reports plan usage counters.
type UsageResponse struct {
	Apps     int `json:"apps"`
	AppLimit int `json:"app_limit"`
}

// AppSnapshot is the exported configuration document of an application.
type AppSnapshot struct {
	Kind    string          `yaml:"kind"`
	Version string          `yaml:"version"`
	App     AppSnapshotInfo `yaml:"app"`
	Site    SiteConfig      `yaml:"site"`
}

// AppSnapshotInfo is the metadata section of an AppSnapshot.
type AppSnapshotInfo struct {
	Name           string `yaml:"name"`
	Mode           Mode   `yaml:"mode"`
	Icon           string `yaml:"icon"`
	IconBackground string `yaml:"icon_background"`
	Description    string `yaml:"description"`
}

// SnapshotVersion is the version written into exported snapshots.
const SnapshotVersion = "0.1.0"

// NewSnapshot builds the export document for app.
func NewSnapshot(app *Application) AppSnapshot {
	return AppSnapshot{
		Kind:    "app",
		Version: SnapshotVersion,
		App: AppSnapshotInfo{
			Name:           app.Name,
			Mode:           app.Mode,
			Icon:           app.Icon,
			IconBackground: app.IconBackground,
			Description:    app.Description,
		},
		Site: app.Site,
	}
}

type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	HistoryAccessible  bool   `json:"history_accessible"`
	DatabaseAccessible bool   `json:"database_accessible"`
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}
