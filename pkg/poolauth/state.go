package poolauth

// State is the lifecycle state of a Client. A client starts Unauthenticated;
// any provider rejection or verification failure during an authenticate or
// refresh lands it in StateFailed, from which a fresh Authenticate starts a
// clean attempt.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
