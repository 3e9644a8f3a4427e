package core

import "time"

// SessionConfig controls the session lifecycle.
//
// MaxAge is how long a session lives from its last renewal. UpdateAge is the
// throttle window: a session is only rewritten once its age within the
// current MaxAge window exceeds UpdateAge, so a session read on every page
// load does not issue a database write per request.
//
// Zero values are honored as-is (UpdateAge of 0 means "renew on every
// update"). Defaults apply only when no SessionConfig is supplied at all.
type SessionConfig struct {
	MaxAge    time.Duration
	UpdateAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge:    30 * 24 * time.Hour,
		UpdateAge: 24 * time.Hour,
	}
}

// Expired reports whether a record with the given expiry is past due at now.
func Expired(expires, now time.Time) bool {
	return now.After(expires)
}

// RenewalDue reports whether a session expiring at expires should be
// rewritten at now.
//
// The session was last written at (expires - MaxAge); it becomes due for a
// renewal write once UpdateAge has elapsed since then.
func (c SessionConfig) RenewalDue(expires, now time.Time) bool {
	due := expires.Add(-c.MaxAge).Add(c.UpdateAge)
	return !now.Before(due)
}

// Renewed returns the expiry a session receives when rewritten at now.
func (c SessionConfig) Renewed(now time.Time) time.Time {
	return now.Add(c.MaxAge)
}
