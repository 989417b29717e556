package server

import (
	"context"
	"net"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	membershipv1 "workspace-tracker/api/membership/v1"
	projectv1 "workspace-tracker/api/project/v1"
	workspacev1 "workspace-tracker/api/workspace/v1"
	auditdomain "workspace-tracker/internal/audit/domain"
	"workspace-tracker/internal/authz/authztest"
	"workspace-tracker/internal/security"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/server/rpc"
)

type memAuditRepo struct {
	mu   sync.Mutex
	logs []*auditdomain.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, a *auditdomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, a)
	return nil
}

func (r *memAuditRepo) ListByWorkspace(ctx context.Context, workspaceID string, filter auditdomain.Filter, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

func (r *memAuditRepo) find(action, resource string) *auditdomain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].Action == action && r.logs[i].Resource == resource {
			return r.logs[i]
		}
	}
	return nil
}

type testClient struct {
	conn   *grpc.ClientConn
	tokens *security.TokenProvider
}

func newScenarioClient(t *testing.T, store *authztest.Store, audits *memAuditRepo) *testClient {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.AuthUnary(tokens, nil, nil),
		interceptors.AuditUnary(audits, nil),
	))
	RegisterServices(s, Deps{
		Guard:       authztest.NewGuard(store),
		Users:       store,
		Workspaces:  store,
		Memberships: store,
		Projects:    store,
		Tasks:       store,
		AuditRepo:   audits,
	})
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn, tokens: tokens}
}

func (c *testClient) call(t *testing.T, userID, service, method string, req, resp any) error {
	t.Helper()
	tok, err := c.tokens.IssueAccess("session-"+userID, userID)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok.Value)
	return rpc.Invoke(ctx, c.conn, service, method, req, resp)
}

func TestScenario_WorkspaceRoles(t *testing.T) {
	store := authztest.NewStore()
	store.AddUser("u1", "u1@example.com")
	store.AddUser("u2", "u2@example.com")
	audits := &memAuditRepo{}
	c := newScenarioClient(t, store, audits)

	var created workspacev1.CreateWorkspaceResponse
	if err := c.call(t, "u1", workspacev1.ServiceName, "CreateWorkspace", &workspacev1.CreateWorkspaceRequest{Name: "W"}, &created); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	ws := created.Workspace.ID
	if got := store.Role("u1", ws); got != "owner" {
		t.Fatalf("creator role = %q, want owner", got)
	}

	if err := c.call(t, "u1", membershipv1.ServiceName, "AddMember",
		&membershipv1.AddMemberRequest{WorkspaceID: ws, UserID: "u2", Role: "member"}, &membershipv1.AddMemberResponse{}); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	var project projectv1.CreateProjectResponse
	if err := c.call(t, "u1", projectv1.ServiceName, "CreateProject",
		&projectv1.CreateProjectRequest{WorkspaceID: ws, Name: "P"}, &project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	deleteProject := &projectv1.DeleteProjectRequest{ProjectID: project.Project.ID}

	err := c.call(t, "u2", projectv1.ServiceName, "DeleteProject", deleteProject, &projectv1.DeleteProjectResponse{})
	if st, _ := status.FromError(err); st.Code() != codes.PermissionDenied || st.Message() != "access denied" {
		t.Fatalf("member DeleteProject = %v, want PermissionDenied access denied", err)
	}
	if a := audits.find("delete", "project"); a == nil || a.WorkspaceID != ws || a.Outcome != codes.PermissionDenied.String() {
		t.Errorf("denied delete audit = %+v", a)
	}

	if err := c.call(t, "u1", membershipv1.ServiceName, "UpdateRole",
		&membershipv1.UpdateRoleRequest{WorkspaceID: ws, UserID: "u2", Role: "admin"}, &membershipv1.UpdateRoleResponse{}); err != nil {
		t.Fatalf("promote to admin: %v", err)
	}
	if err := c.call(t, "u2", projectv1.ServiceName, "DeleteProject", deleteProject, &projectv1.DeleteProjectResponse{}); err != nil {
		t.Fatalf("admin DeleteProject: %v", err)
	}

	err = c.call(t, "u2", workspacev1.ServiceName, "DeleteWorkspace", &workspacev1.DeleteWorkspaceRequest{WorkspaceID: ws}, &workspacev1.DeleteWorkspaceResponse{})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("admin DeleteWorkspace code = %v, want PermissionDenied", status.Code(err))
	}

	err = c.call(t, "u1", membershipv1.ServiceName, "UpdateRole",
		&membershipv1.UpdateRoleRequest{WorkspaceID: ws, UserID: "u1", Role: "member"}, &membershipv1.UpdateRoleResponse{})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("sole owner self-demotion code = %v, want FailedPrecondition", status.Code(err))
	}
	if got := store.Role("u1", ws); got != "owner" {
		t.Errorf("u1 role after rejected demotion = %q, want owner", got)
	}
}

func TestScenario_UnknownWorkspaceIsIndistinguishable(t *testing.T) {
	store := authztest.NewStore()
	store.AddUser("u1", "u1@example.com")
	store.AddUser("u2", "u2@example.com")
	store.AddWorkspace("w1")
	store.AddMember("u1", "w1", "owner")
	c := newScenarioClient(t, store, &memAuditRepo{})

	for _, ws := range []string{"w1", "does-not-exist"} {
		err := c.call(t, "u2", workspacev1.ServiceName, "GetWorkspace", &workspacev1.GetWorkspaceRequest{WorkspaceID: ws}, &workspacev1.GetWorkspaceResponse{})
		st, _ := status.FromError(err)
		if st.Code() != codes.PermissionDenied || st.Message() != "access denied" {
			t.Errorf("GetWorkspace(%s) = %v %q, want PermissionDenied access denied", ws, st.Code(), st.Message())
		}
	}
}

func TestScenario_MissingTokenIsUnauthenticated(t *testing.T) {
	c := newScenarioClient(t, authztest.NewStore(), &memAuditRepo{})
	err := rpc.Invoke(context.Background(), c.conn, workspacev1.ServiceName, "ListWorkspaces", &workspacev1.ListWorkspacesRequest{}, &workspacev1.ListWorkspacesResponse{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}
