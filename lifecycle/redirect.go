package lifecycle

import (
	"fmt"

	"github.com/sorenmh/appsmith/models"
)

// Destination is a view the session can navigate to
type Destination string

// ListRoot is the application list
const ListRoot Destination = "/apps"

// Resolve picks where to send the user after an application was created.
// Non-managers only get the read-only overview. Managers land in the editor
// that fits the application's mode.
func Resolve(isManager bool, app *models.Application) Destination {
	if !isManager {
		return Destination(fmt.Sprintf("/app/%s/overview", app.ID))
	}

	switch app.Mode {
	case models.ModeWorkflow, models.ModeAdvancedChat:
		return Destination(fmt.Sprintf("/app/%s/workflow", app.ID))
	default:
		return Destination(fmt.Sprintf("/app/%s/configuration", app.ID))
	}
}
