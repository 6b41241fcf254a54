package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/services"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity"`
}

func GetCart(carts *services.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		view, err := carts.View(ctx, user.UserID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cart": view})
	}
}

func AddToCart(carts *services.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		qty := 1
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := carts.AddItem(ctx, user.UserID, req.ProductID, qty)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "itemCount": len(cart.Items)})
	}
}

func UpdateCartItem(carts *services.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		productID, ok := idParam(c, "productId")
		if !ok {
			return
		}
		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity == nil {
			respondWithError(c, apperror.Validation("Quantity must be at least 1"))
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if _, err := carts.UpdateQuantity(ctx, user.UserID, productID, *req.Quantity); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
	}
}

func RemoveFromCart(carts *services.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		productID, ok := idParam(c, "productId")
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.RemoveItem(ctx, user.UserID, productID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
	}
}

func ClearCart(carts *services.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := subject(c)
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := carts.Clear(ctx, user.UserID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}
