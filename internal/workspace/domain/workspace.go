package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	maxNameLength        = 120
	maxDescriptionLength = 2000
	maxSettings          = 64
)

// Workspace is the tenant boundary: memberships, projects and (through projects) tasks belong to one workspace.
type Workspace struct {
	ID          string
	Name        string
	Description string
	// Settings holds free-form workspace preferences (e.g. default_task_status, timezone).
	Settings  map[string]string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the workspace for persistence. Returns an error describing the first validation failure.
func (w *Workspace) Validate() error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return errors.New("name is required")
	}
	if len(w.Name) > maxNameLength {
		return errors.New("name is too long")
	}
	if len(w.Description) > maxDescriptionLength {
		return errors.New("description is too long")
	}
	return ValidateSettings(w.Settings)
}

// ValidateSettings checks the settings map size and keys.
func ValidateSettings(settings map[string]string) error {
	if len(settings) > maxSettings {
		return errors.New("too many settings")
	}
	for k := range settings {
		if strings.TrimSpace(k) == "" {
			return errors.New("setting keys must be non-empty")
		}
	}
	return nil
}
