package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/services"
)

// SetupAdmin creates the first admin from the configured credentials. It
// refuses once any admin exists.
func SetupAdmin(admin *services.Admin, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := admin.Setup(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("admin bootstrapped", zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusCreated, gin.H{
			"message": "Admin created successfully",
			"admin":   user,
		})
	}
}
