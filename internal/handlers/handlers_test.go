package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 12},
		{"3", "20", 3, 20},
		{"abc", "-5", 1, 12},
		{"0", "1000", 1, 100},
	}
	for _, tt := range tests {
		page, limit := parsePaginationParams(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page, "page %q", tt.page)
		assert.Equal(t, tt.wantLimit, limit, "limit %q", tt.limit)
	}
}

func TestParseProductQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/products?category=Electronics&search=%20lamp%20&minPrice=500&maxPrice=oops&sortBy=price&sortOrder=desc&page=2", nil)

	q := parseProductQuery(c)
	assert.Equal(t, "Electronics", q.Category)
	assert.Equal(t, "lamp", q.Search)
	require.NotNil(t, q.MinPrice)
	assert.Equal(t, int64(500), *q.MinPrice)
	assert.Nil(t, q.MaxPrice)
	assert.Equal(t, "price", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 12, q.Limit)
}

func TestSafeDeleteUpload(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(filepath.Dir(dir), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	for _, name := range []string{"", "..", ".", "../keep.txt", "nested", "nested/../a.png", "missing.png"} {
		assert.ErrorIs(t, safeDeleteUpload(dir, name), errUploadNotFound, name)
	}
	_, err := os.Stat(outside)
	require.NoError(t, err)

	require.NoError(t, safeDeleteUpload(dir, "a.png"))
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegisterRequestValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	r := gin.New()
	r.POST("/register", func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	send := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := send(`{"name":"Ali","email":"ali@example.pk","phone":"0300-1234567","password":"secret1"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(`{"name":"Ali","email":"ali@example.pk","phone":"03001234567","password":"secret1"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = send(`{"name":"Ali","email":"not-an-email","phone":"0400-1234567","password":"123"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email must be a valid email")
	assert.Contains(t, w.Body.String(), "phone must be a valid Pakistani mobile number")
	assert.Contains(t, w.Body.String(), "password must be at least 6 characters")

	w = send(`{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid body")
}
