package handlers

import (
	"strconv"
	"strings"

	"github.com/asadk95/estore/internal/services"
)

// parsePaginationParams is lenient: missing or malformed values fall back to
// the defaults instead of failing the request.
func parsePaginationParams(pageStr, limitStr string) (int, int) {
	page, err := strconv.Atoi(strings.TrimSpace(pageStr))
	if err != nil {
		page = 0
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil {
		limit = 0
	}
	return services.NormalizePage(page, limit)
}
