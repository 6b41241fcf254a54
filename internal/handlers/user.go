package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/services"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func GetProfile(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.Profile(ctx, caller.UserID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

func UpdateProfile(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		var in services.ProfileInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.UpdateProfile(ctx, caller.UserID, in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
	}
}

func ChangePassword(users *services.Users, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := users.ChangePassword(ctx, caller.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("password changed", zap.Int64("userId", caller.UserID))
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}

func GetAddresses(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		addresses, err := users.Addresses(ctx, caller.UserID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"addresses": addresses})
	}
}

func AddAddress(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		var in services.AddressInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		address, err := users.AddAddress(ctx, caller.UserID, in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Address added", "address": address})
	}
}

func UpdateAddress(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		var in services.AddressInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		address, err := users.UpdateAddress(ctx, caller.UserID, strings.TrimSpace(c.Param("addressId")), in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address updated", "address": address})
	}
}

func DeleteAddress(users *services.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := users.DeleteAddress(ctx, caller.UserID, strings.TrimSpace(c.Param("addressId"))); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
	}
}
