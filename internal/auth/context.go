package auth

import "context"

type contextKey string

const (
	contextKeyWorkspace contextKey = "auth.workspace_id"
	contextKeyRole      contextKey = "auth.role"
	contextKeySubject   contextKey = "auth.subject"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, workspaceID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyWorkspace, workspaceID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// WorkspaceIDFromContext extracts workspace id from context.
func WorkspaceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyWorkspace)
	if workspaceID, ok := value.(string); ok {
		return workspaceID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeySubject)
	if subject, ok := value.(string); ok {
		return subject
	}
	return ""
}
