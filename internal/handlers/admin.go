package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/services"
)

type updateUserRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func GetDashboard(admin *services.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		dashboard, err := admin.Stats(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

func GetUsers(admin *services.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		users, stats, err := admin.ListUsers(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "stats": stats})
	}
}

// GetAllUsers backs the older /users/admin/all listing.
func GetAllUsers(admin *services.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		users, _, err := admin.ListUsers(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
	}
}

func UpdateUser(admin *services.Admin, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := subject(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := admin.UpdateUser(ctx, actor, id, req.Role, req.Status)
		if err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("user updated",
			zap.Int64("userId", id),
			zap.Int64("by", actor.UserID),
			zap.String("role", user.Role),
			zap.String("status", user.Status),
		)
		c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": user})
	}
}

func UpdateUserRole(admin *services.Admin, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req updateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := admin.SetRole(ctx, id, req.Role)
		if err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("user role updated", zap.Int64("userId", id), zap.String("role", user.Role))
		c.JSON(http.StatusOK, gin.H{"message": "User role updated", "user": user})
	}
}
