package session

import "lovmig/cli/internal/auth"

// Phase is where the synchronizer is in its lifecycle.
type Phase int

const (
	Initializing Phase = iota
	Unauthenticated
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the local view of authentication.
type State struct {
	Phase   Phase
	Session *auth.Session
	User    *auth.User
}

// IsAuthenticated reports whether a user is present.
func (s State) IsAuthenticated() bool { return s.User != nil }

// stateFor derives the post-initialization state from a session.
func stateFor(sess *auth.Session) State {
	u := auth.UserOf(sess)
	st := State{Phase: Unauthenticated, Session: sess, User: u}
	if u != nil {
		st.Phase = Authenticated
	}
	return st
}

// Result is the outcome of a user-initiated auth action. Err keeps the cause
// for callers that want to classify it; it is never serialized.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func failure(msg string, err error) Result {
	return Result{Success: false, Error: msg, Err: err}
}
