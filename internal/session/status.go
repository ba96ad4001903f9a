package session

// Status is the authentication status of the session.
type Status int

const (
	// StatusUnresolved means Restore has not run yet.
	StatusUnresolved Status = iota

	// StatusLoading means a stored token is being validated.
	StatusLoading

	// StatusAuthenticated means the backend confirmed the identity behind the held token.
	StatusAuthenticated

	// StatusUnauthenticated means there is no usable token.
	StatusUnauthenticated
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Resolved reports whether s is a terminal status.
func (s Status) Resolved() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}

// validTransitions lists, per status, the statuses it may move to.
// Authenticated -> Authenticated covers a second login refreshing the user;
// Unauthenticated -> Unauthenticated and Unresolved -> Unauthenticated cover
// logout being idempotent and callable before Restore.
var validTransitions = map[Status][]Status{
	StatusUnresolved:      {StatusLoading, StatusUnauthenticated},
	StatusLoading:         {StatusAuthenticated, StatusUnauthenticated},
	StatusAuthenticated:   {StatusAuthenticated, StatusUnauthenticated},
	StatusUnauthenticated: {StatusAuthenticated, StatusUnauthenticated},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
