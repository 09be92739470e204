// clearpass/session.go
package clearpass

import "time"

// Session is the bearer credential obtained at construction. It is never refreshed;
// once it has expired callers build a new Client.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration // zero when the server did not say
	CreatedAt   time.Time
}

// ExpiresAt returns the instant the token stops being valid, or the zero time if
// the lifetime is unknown.
func (s Session) ExpiresAt() time.Time {
	if s.ExpiresIn <= 0 {
		return time.Time{}
	}
	return s.CreatedAt.Add(s.ExpiresIn)
}

// Expired reports whether the token has expired at now. A session of unknown
// lifetime never reports expiry.
func (s Session) Expired(now time.Time) bool {
	expiresAt := s.ExpiresAt()
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
