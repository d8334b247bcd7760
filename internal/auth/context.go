package auth

import "context"

type contextKey struct{}

// RoleSuperAdmin is the only role the admin console accepts for writes.
const RoleSuperAdmin = "super_admin"

// WithSession attaches the active session to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Username returns the logged-in admin's username, or "" when anonymous.
func Username(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.User.Username
}

func IsSuperAdmin(ctx context.Context) bool {
	s, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return s.User.Role == RoleSuperAdmin
}
