package orgvclient

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionInfo describes the lifetime of the current access credential, read
// from the claims of the access cookie. The claims are decoded without
// signature verification: the server is the sole authority on validity, and
// this data is display-only ("session expires in 4m").
type SessionInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining reports how long the access credential is still valid; zero or
// negative means it is due for a refresh.
func (si SessionInfo) Remaining() time.Duration {
	return time.Until(si.ExpiresAt)
}

// SessionInfo inspects the access cookie currently in the jar. It returns
// ErrNotAuthenticated when no access cookie is present.
func (c *Client) SessionInfo() (SessionInfo, error) {
	var raw string
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == c.config.HTTP.AccessCookie {
			raw = cookie.Value
			break
		}
	}
	if raw == "" {
		return SessionInfo{}, ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return SessionInfo{}, fmt.Errorf("decoding access cookie: %w", err)
	}

	var info SessionInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
