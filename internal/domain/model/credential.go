package model

import "time"

// Credential is a bearer access token obtained from the identity provider's
// authorization-code exchange, bound to one browser session. It is created by
// CompleteLogin, read on every outbound API call, and destroyed on logout.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the credential may still be attached to requests.
// A credential at or past its expiry is treated as absent; it is never
// silently refreshed or extended.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}
