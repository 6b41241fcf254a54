package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
)

// TokenVerifier turns a raw bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(raw string) (authz.Subject, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// subject on the context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := verifier.Verify(bearerToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		setSubject(c, subject)
		c.Next()
	}
}

// RequireAction checks a role-level permission. It must run after RequireAuth.
func RequireAction(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, _ := CurrentSubject(c)
		if !authz.Allowed(subject, action, authz.Any) {
			_ = c.Error(apperror.Forbidden("Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
