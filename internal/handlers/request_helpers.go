package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/middleware"
)

const requestTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondWithError hands err to the error middleware, which owns the response.
func respondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respondWithError(c, apperror.Validation("invalid id"))
		return 0, false
	}
	return id, true
}

// subject returns the caller stored by the auth middleware.
func subject(c *gin.Context) (authz.Subject, bool) {
	s, ok := middleware.CurrentSubject(c)
	if !ok {
		respondWithError(c, apperror.Unauthorized("Access token required"))
		return authz.Subject{}, false
	}
	return s, true
}
