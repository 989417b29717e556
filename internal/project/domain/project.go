package domain

import (
	"errors"
	"strings"
	"time"
)

// Project belongs to exactly one workspace. It carries no permissions of its own: access is decided
// by the caller's membership in WorkspaceID.
type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the project for persistence. Returns an error describing the first validation failure.
func (p *Project) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.WorkspaceID == "" {
		return errors.New("workspace_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Name) > 200 {
		return errors.New("name is too long")
	}
	return nil
}
