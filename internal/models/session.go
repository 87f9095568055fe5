package models

// SessionState is the lifecycle state of a browsing context's session.
type SessionState string

const (
	StateUnauthenticated    SessionState = "unauthenticated"
	StateAuthenticating     SessionState = "authenticating"
	StatePermissionsPending SessionState = "permissions_pending"
	StateAuthenticated      SessionState = "authenticated"
)

// HasIdentity reports whether the state carries a signed-in principal, i.e.
// the user got past the credential exchange and identity fetch.
func (s SessionState) HasIdentity() bool {
	return s == StateAuthenticated || s == StatePermissionsPending
}
