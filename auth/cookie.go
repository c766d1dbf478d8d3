package auth

import (
	"net/http"

	"chat-hub/domain"
	"chat-hub/errors"
)

// Cookie names shared by the HTTP layer and the websocket handshake. Both
// ingress paths resolve the session through ResolveSession so the parsing
// and validation logic cannot diverge.
const (
	SessionCookie = "chat-hub-session"
	AdminCookie   = "chat-hub-admin"
)

// SessionMaxAge is how long a session cookie stays valid.
const SessionMaxAge = 15 * 24 * 60 * 60 // seconds

// ResolveSession extracts the session token from the request cookies and
// resolves it to an identity. It is the single authentication entry point
// for HTTP requests and websocket upgrade requests alike.
func ResolveSession(r *http.Request) (domain.Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", errors.ErrUnauthenticated
	}
	return ValidateToken(cookie.Value)
}

// ResolveAdminSession validates the admin cookie against the configured
// secret key.
func ResolveAdminSession(r *http.Request, secretKey string) error {
	cookie, err := r.Cookie(AdminCookie)
	if err != nil {
		return errors.ErrUnauthenticated
	}
	return ValidateAdminToken(cookie.Value, secretKey)
}
