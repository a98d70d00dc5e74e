package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/products?"+rawQuery, nil)
	return c
}

func TestParseListProductsQuery(t *testing.T) {
	c := testContext(t, "min_price=1000&max_price=5000&category=laptops&vendor=7&in_stock=true&featured=false&search=gaming&ordering=-price")

	req, err := parseListProductsQuery(c)
	require.NoError(t, err)

	require.NotNil(t, req.MinPrice)
	assert.Equal(t, int64(1000), *req.MinPrice)
	require.NotNil(t, req.MaxPrice)
	assert.Equal(t, int64(5000), *req.MaxPrice)
	assert.Equal(t, "laptops", req.CategorySlug)
	require.NotNil(t, req.VendorID)
	assert.Equal(t, int64(7), *req.VendorID)
	require.NotNil(t, req.InStock)
	assert.True(t, *req.InStock)
	require.NotNil(t, req.Featured)
	assert.False(t, *req.Featured)
	assert.Equal(t, "gaming", req.Search)
	assert.Equal(t, "-price", req.Ordering)
}

func TestParseListProductsQueryEmpty(t *testing.T) {
	c := testContext(t, "")

	req, err := parseListProductsQuery(c)
	require.NoError(t, err)

	assert.Nil(t, req.MinPrice)
	assert.Nil(t, req.MaxPrice)
	assert.Nil(t, req.VendorID)
	assert.Nil(t, req.InStock)
	assert.Nil(t, req.Featured)
	assert.Equal(t, "", req.CategorySlug)
	assert.Equal(t, "", req.Ordering)
}

func TestParseListProductsQueryInvalidValues(t *testing.T) {
	_, err := parseListProductsQuery(testContext(t, "min_price=cheap"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_price")

	_, err = parseListProductsQuery(testContext(t, "in_stock=maybe"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in_stock")
}
