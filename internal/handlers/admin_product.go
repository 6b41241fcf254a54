package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/services"
)

func CreateProduct(catalog *services.Catalog, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.Create(ctx, in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("product created", zap.Int64("productId", product.ID), zap.String("name", product.Name))
		c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": product})
	}
}

func UpdateProduct(catalog *services.Catalog, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in services.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondValidationError(c, err)
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.Update(ctx, id, in)
		if err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("product updated", zap.Int64("productId", id))
		c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
	}
}

// DeleteProduct leaves orders untouched; their lines carry a snapshot.
func DeleteProduct(catalog *services.Catalog, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.Delete(ctx, id); err != nil {
			respondWithError(c, err)
			return
		}
		logger.Info("product deleted", zap.Int64("productId", id))
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	}
}
