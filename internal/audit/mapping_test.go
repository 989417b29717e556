package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	tests := []struct {
		fullMethod       string
		action, resource string
	}{
		{"/tracker.workspace.v1.WorkspaceService/GetWorkspace", "get", "workspace"},
		{"/tracker.workspace.v1.WorkspaceService/ListWorkspaces", "list", "workspace"},
		{"/tracker.project.v1.ProjectService/CreateProject", "create", "project"},
		{"/tracker.task.v1.TaskService/UpdateTask", "update", "task"},
		{"/tracker.task.v1.TaskService/DeleteTask", "delete", "task"},
		{"/tracker.task.v1.TaskService/AssignTask", "assign", "task"},
		{"/tracker.membership.v1.MembershipService/AddMember", "member_added", "member"},
		{"/tracker.membership.v1.MembershipService/RemoveMember", "member_removed", "member"},
		{"/tracker.membership.v1.MembershipService/UpdateRole", "role_changed", "member"},
		{"/tracker.membership.v1.MembershipService/LeaveWorkspace", "member_left", "member"},
		{"/tracker.workspace.v1.WorkspaceService/UpdateWorkspaceSettings", "settings_changed", "workspace"},
		{"/tracker.auth.v1.AuthService/Login", "login", "auth"},
		{"/tracker.task.v1.TaskService/Get", "get", "task"},
		{"SomeService/SomeMethod", "somemethod", "unknown"},
		{"invalid-format", "unknown", "unknown"},
		{"/pkg.Service/Ping", "ping", "unknown"},
	}
	for _, tc := range tests {
		ar := ParseFullMethod(tc.fullMethod)
		if ar.Action != tc.action || ar.Resource != tc.resource {
			t.Errorf("ParseFullMethod(%q) = %+v, want {%s %s}", tc.fullMethod, ar, tc.action, tc.resource)
		}
	}
}
