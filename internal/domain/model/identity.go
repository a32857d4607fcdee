package model

// Role is the console authorization level of a staff user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Identity is the authenticated user record returned by the monitor backend's
// whoAmI endpoint. It is the sole input to session resolution.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// SessionPhase is the resolution phase of a browser session.
type SessionPhase int

const (
	// SessionUnknown means the identity lookup has not completed yet.
	// Callers must not make redirect decisions while in this phase.
	SessionUnknown SessionPhase = iota
	// SessionAuthenticated means the backend confirmed a live session.
	SessionAuthenticated
	// SessionUnauthenticated means the lookup failed or no credential exists.
	SessionUnauthenticated
)

// SessionStatus is the tri-state outcome of resolving one browser session.
// User is non-nil only when Phase is SessionAuthenticated. It is recomputed
// wholesale from a single identity lookup, never partially updated.
type SessionStatus struct {
	Phase SessionPhase
	User  *Identity
}

// Authenticated reports whether the session resolved to a live user.
func (s SessionStatus) Authenticated() bool {
	return s.Phase == SessionAuthenticated && s.User != nil
}
