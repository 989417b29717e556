// Package rbac adapts the authz guard to gRPC handlers: it reads the caller from the context,
// runs the guard, records the audited workspace and maps failures to gRPC status.
package rbac

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/authz"
	membershipdomain "workspace-tracker/internal/membership/domain"
	"workspace-tracker/internal/server/interceptors"
)

// MsgAccessDenied is the only message clients see for denied or non-existent resources.
const MsgAccessDenied = "access denied"

// RequireActor returns the authenticated user id, or Unauthenticated.
func RequireActor(ctx context.Context) (string, error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "authentication required")
	}
	return userID, nil
}

// Authorize checks that the caller holds required (combined by mode) on target.
// Returns the grant on success or a gRPC status error.
func Authorize(ctx context.Context, guard *authz.Guard, target authz.Target, mode authz.Mode, required ...authz.Permission) (*authz.Grant, error) {
	actorID, err := RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	grant, err := guard.Check(ctx, actorID, target, mode, required...)
	return annotate(ctx, grant, err)
}

// RequireMember checks that the caller is a member of target's workspace with any role.
func RequireMember(ctx context.Context, guard *authz.Guard, target authz.Target) (*authz.Grant, error) {
	actorID, err := RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	grant, err := guard.RequireMember(ctx, actorID, target)
	return annotate(ctx, grant, err)
}

func annotate(ctx context.Context, grant *authz.Grant, err error) (*authz.Grant, error) {
	if err != nil {
		var ae *authz.Error
		// Unknown workspaces and resources are never audited.
		if errors.As(err, &ae) && (ae.Code == authz.CodeForbidden || ae.Code == authz.CodeMembershipNotFound) {
			interceptors.AnnotateAudit(ctx, ae.WorkspaceID, ae.Target.String())
		}
		return nil, StatusError(err)
	}
	interceptors.AnnotateAudit(ctx, grant.WorkspaceID, grant.Target.String())
	return grant, nil
}

// StatusError converts an error from the guard or a guarded operation into a gRPC status error.
// Denials and every kind of "not found" are indistinguishable to the client. A storage-level
// last-owner rejection is reported like the guard's. Errors that already carry a status pass through.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	switch authz.CodeOf(err) {
	case authz.CodeForbidden, authz.CodeWorkspaceNotFound, authz.CodeMembershipNotFound, authz.CodeResourceNotFound:
		return status.Error(codes.PermissionDenied, MsgAccessDenied)
	case authz.CodeLastOwnerViolation:
		return status.Error(codes.FailedPrecondition, authz.ErrLastOwnerViolation.Error())
	}
	if errors.Is(err, membershipdomain.ErrLastOwner) {
		return status.Error(codes.FailedPrecondition, authz.ErrLastOwnerViolation.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	log.Printf("rbac: authorization failed: %v", err)
	return status.Error(codes.Internal, "internal error")
}
