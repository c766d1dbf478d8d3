package server

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/gateway"

	"github.com/gin-gonic/gin"
)

// currentUserKey is where RequireUser stores the resolved profile for the
// handlers downstream.
const currentUserKey = "currentUser"

// RequireUser resolves the session cookie to a full profile or aborts with
// 401. Handlers read the result through currentUser.
func RequireUser(resolver gateway.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.Authenticate(c.Request)
		if err != nil {
			fail(c, errors.ErrUnauthenticated)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireAdmin validates the admin cookie against the configured secret.
func RequireAdmin(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.ResolveAdminSession(c.Request, secretKey); err != nil {
			fail(c, errors.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	user, _ := c.Get(currentUserKey)
	return user.(domain.User)
}
