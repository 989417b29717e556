package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// Membership methods are audited as events on the "member" resource.
var methodOverrides = map[string]ActionResource{
	"/tracker.membership.v1.MembershipService/AddMember":             {Action: "member_added", Resource: "member"},
	"/tracker.membership.v1.MembershipService/RemoveMember":          {Action: "member_removed", Resource: "member"},
	"/tracker.membership.v1.MembershipService/UpdateRole":            {Action: "role_changed", Resource: "member"},
	"/tracker.membership.v1.MembershipService/LeaveWorkspace":        {Action: "member_left", Resource: "member"},
	"/tracker.workspace.v1.WorkspaceService/UpdateWorkspaceSettings": {Action: "settings_changed", Resource: "workspace"},
}

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /tracker.task.v1.TaskService/AssignTask -> assign, task).
func ParseFullMethod(fullMethod string) ActionResource {
	if ar, ok := methodOverrides[fullMethod]; ok {
		return ar
	}
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(beforeSlash[dot+1:])}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

var actionPrefixes = []struct{ prefix, action string }{
	{"Get", "get"},
	{"List", "list"},
	{"Create", "create"},
	{"Update", "update"},
	{"Delete", "delete"},
	{"Assign", "assign"},
	{"Add", "add"},
	{"Remove", "remove"},
}

func methodToAction(method string) string {
	for _, p := range actionPrefixes {
		if strings.HasPrefix(method, p.prefix) && method != p.prefix {
			return p.action
		}
	}
	return strings.ToLower(method)
}
