package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Task belongs to exactly one project and, through it, to one workspace.
type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      Status
	AssigneeID  string // empty when unassigned
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ParseStatus converts wire text to a Status. Empty input yields StatusTodo.
func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "":
		return StatusTodo, nil
	case StatusTodo, StatusInProgress, StatusDone:
		return v, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Validate validates the task for persistence. Returns an error describing the first validation failure.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if t.Title == "" {
		return errors.New("title is required")
	}
	if len(t.Title) > 300 {
		return errors.New("title is too long")
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	return nil
}
