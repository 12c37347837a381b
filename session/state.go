package session

import "github.com/jrsteele09/go-school-client/claims"

// State is a step of the authentication state machine.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateUnauthenticated
	StateLoggingIn
	StateRefreshing
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateRestoring:
		return "RESTORING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateLoggingIn:
		return "LOGGING_IN"
	case StateRefreshing:
		return "REFRESHING"
	case StateLoggingOut:
		return "LOGGING_OUT"
	}
	return "UNKNOWN"
}

// InFlight reports whether an operation is running in this state.
func (s State) InFlight() bool {
	switch s {
	case StateRestoring, StateLoggingIn, StateRefreshing, StateLoggingOut:
		return true
	}
	return false
}

// Session is a read-only snapshot handed to readers and subscribers.
type Session struct {
	State           State
	AccessToken     string
	Claims          claims.Claims
	IsAuthenticated bool
	IsLoading       bool
}

// UserID is the identifier claim of the current token, if any.
func (s Session) UserID() string {
	return s.Claims.UserID()
}
