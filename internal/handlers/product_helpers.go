package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asadk95/estore/internal/services"
)

func parsePriceBound(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	bound := int64(value)
	return &bound
}

func parseProductQuery(c *gin.Context) services.ProductQuery {
	page, limit := parsePaginationParams(c.Query("page"), c.Query("limit"))
	return services.ProductQuery{
		Category:  strings.TrimSpace(c.Query("category")),
		Search:    strings.TrimSpace(c.Query("search")),
		MinPrice:  parsePriceBound(c.Query("minPrice")),
		MaxPrice:  parsePriceBound(c.Query("maxPrice")),
		Badge:     strings.TrimSpace(c.Query("badge")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page,
		Limit:     limit,
	}
}
