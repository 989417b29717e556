package authz

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these; the concrete value is always an *Error.
var (
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrLastOwnerViolation  = errors.New("workspace must keep at least one owner")
	ErrOwnerGrantForbidden = errors.New("granting the owner role is not permitted")
)

// Code is the internal classification of an authorization failure. Distinct codes are kept for logs
// and telemetry even where the transport collapses them into one response.
type Code string

const (
	CodeWorkspaceNotFound  Code = "workspace_not_found"
	CodeMembershipNotFound Code = "membership_not_found"
	CodeResourceNotFound   Code = "resource_not_found"
	CodeForbidden          Code = "forbidden"
	CodeLastOwnerViolation Code = "last_owner_violation"
)

// Error is a terminal authorization failure for the current request.
type Error struct {
	Code        Code
	ActorID     string
	WorkspaceID string
	Target      Target
	// Reason is set for CodeForbidden.
	Reason Reason
	// Missing lists required permissions the role lacks (CodeForbidden from the engine).
	Missing []Permission
	err     error
}

func (e *Error) Error() string {
	msg := e.err.Error()
	switch e.Code {
	case CodeForbidden:
		if len(e.Missing) > 0 {
			return fmt.Sprintf("%s: %s (missing %s)", msg, e.Reason, NewPermissionSet(e.Missing...))
		}
		return fmt.Sprintf("%s: %s", msg, e.Reason)
	case CodeResourceNotFound:
		return fmt.Sprintf("%s: %s", msg, e.Target)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is makes every CodeForbidden error match ErrForbidden, whatever its more specific sentinel.
func (e *Error) Is(target error) bool {
	return target == ErrForbidden && e.Code == CodeForbidden
}

// CodeOf returns the code of the *Error in err's chain, or "" when err is not an authorization failure
// (for example a storage error).
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func newError(code Code, sentinel error, actorID, workspaceID string, target Target) *Error {
	return &Error{Code: code, ActorID: actorID, WorkspaceID: workspaceID, Target: target, err: sentinel}
}

// Forbidden builds a CodeForbidden error for rules enforced outside the engine (e.g. an admin acting on an owner).
func Forbidden(grant *Grant, reason Reason, sentinel error) *Error {
	if sentinel == nil {
		sentinel = ErrForbidden
	}
	e := &Error{Code: CodeForbidden, Reason: reason, err: sentinel}
	if grant != nil {
		e.ActorID = grant.ActorID
		e.WorkspaceID = grant.WorkspaceID
		e.Target = grant.Target
	}
	return e
}
