package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/authz"
)

const subjectKey = "subject"

// bearerToken extracts the token from "Authorization: Bearer <token>". A
// header in any other shape yields "".
func bearerToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func setSubject(c *gin.Context, subject authz.Subject) {
	c.Set(subjectKey, subject)
}

// CurrentSubject returns the authenticated caller set by RequireAuth.
func CurrentSubject(c *gin.Context) (authz.Subject, bool) {
	value, ok := c.Get(subjectKey)
	if !ok {
		return authz.Subject{}, false
	}
	subject, ok := value.(authz.Subject)
	return subject, ok
}
