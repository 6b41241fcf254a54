package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/services"
)

func GetProducts(catalog *services.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		page, err := catalog.List(ctx, parseProductQuery(c))
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": page.Products, "pagination": page.Pagination})
	}
}

func GetFeaturedProducts(catalog *services.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		products, err := catalog.Featured(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func GetCategories(catalog *services.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		categories, err := catalog.Categories(ctx)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

func GetProduct(catalog *services.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx, cancel := requestContext(c)
		defer cancel()

		product, related, err := catalog.Get(ctx, id)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product, "relatedProducts": related})
	}
}
