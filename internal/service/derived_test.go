package service

import (
	"testing"

	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestInStock(t *testing.T) {
	assert.True(t, InStock(&models.Product{Quantity: 1}))
	assert.False(t, InStock(&models.Product{Quantity: 0}))
}

func TestLowStock(t *testing.T) {
	p := &models.Product{Quantity: 5, LowStockThreshold: 10}
	assert.True(t, LowStock(p))
	assert.True(t, InStock(p))

	// at the threshold still counts as low
	p = &models.Product{Quantity: 10, LowStockThreshold: 10}
	assert.True(t, LowStock(p))

	// above the threshold does not
	p = &models.Product{Quantity: 11, LowStockThreshold: 10}
	assert.False(t, LowStock(p))

	// out of stock is never low stock
	p = &models.Product{Quantity: 0, LowStockThreshold: 10}
	assert.False(t, LowStock(p))
	assert.False(t, InStock(p))
}

func TestDiscountPercentage(t *testing.T) {
	// 100.00 down from 150.00 is a 33.33% markdown
	p := &models.Product{Price: 10000, CompareAtPrice: int64Ptr(15000)}
	assert.Equal(t, 33.33, DiscountPercentage(p))

	// no compare-at price means no discount
	p = &models.Product{Price: 10000}
	assert.Equal(t, 0.0, DiscountPercentage(p))

	// compare-at price at or below the price means no discount
	p = &models.Product{Price: 10000, CompareAtPrice: int64Ptr(10000)}
	assert.Equal(t, 0.0, DiscountPercentage(p))
	p = &models.Product{Price: 10000, CompareAtPrice: int64Ptr(8000)}
	assert.Equal(t, 0.0, DiscountPercentage(p))

	// half off
	p = &models.Product{Price: 5000, CompareAtPrice: int64Ptr(10000)}
	assert.Equal(t, 50.0, DiscountPercentage(p))
}

func TestAverageRating(t *testing.T) {
	// no approved reviews averages to zero
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]models.ProductReview{
		{Rating: 5, IsApproved: false},
	}))

	// single approved review
	assert.Equal(t, 4.0, AverageRating([]models.ProductReview{
		{Rating: 4, IsApproved: true},
	}))

	// unapproved reviews are excluded from the average
	reviews := []models.ProductReview{
		{Rating: 5, IsApproved: true},
		{Rating: 4, IsApproved: true},
		{Rating: 1, IsApproved: false},
	}
	assert.Equal(t, 4.5, AverageRating(reviews))

	// rounded to two decimals
	reviews = []models.ProductReview{
		{Rating: 5, IsApproved: true},
		{Rating: 4, IsApproved: true},
		{Rating: 4, IsApproved: true},
	}
	assert.Equal(t, 4.33, AverageRating(reviews))
}

func TestApprovedReviewCount(t *testing.T) {
	reviews := []models.ProductReview{
		{Rating: 5, IsApproved: true},
		{Rating: 3, IsApproved: false},
		{Rating: 4, IsApproved: true},
	}
	assert.Equal(t, 2, ApprovedReviewCount(reviews))
	assert.Equal(t, 0, ApprovedReviewCount(nil))
}

func TestNewProductView(t *testing.T) {
	p := &models.Product{
		ID:                7,
		Name:              "Desk Lamp",
		Price:             10000,
		CompareAtPrice:    int64Ptr(15000),
		Quantity:          5,
		LowStockThreshold: 10,
	}
	reviews := []models.ProductReview{
		{Rating: 4, IsApproved: true},
	}

	view := NewProductView(p, "Lighting", nil, nil, reviews)

	assert.True(t, view.InStock)
	assert.True(t, view.LowStock)
	assert.Equal(t, 33.33, view.DiscountPercentage)
	assert.Equal(t, 4.0, view.AverageRating)
	assert.Equal(t, 1, view.ReviewCount)
	assert.Equal(t, "Lighting", view.CategoryName)

	// nil collections come back as empty slices, not null in JSON
	assert.NotNil(t, view.Images)
	assert.NotNil(t, view.Variants)
	assert.Len(t, view.Images, 0)
}

func TestNewProductListItemImageFallback(t *testing.T) {
	p := &models.Product{ID: 1, Name: "Mug", Price: 900}

	// primary image wins regardless of position
	images := []models.ProductImage{
		{URL: "https://img.test/a.jpg", Position: 0},
		{URL: "https://img.test/b.jpg", Position: 1, IsPrimary: true},
	}
	item := NewProductListItem(p, "", images)
	assert.Equal(t, "https://img.test/b.jpg", item.ImageURL)

	// without a primary image the first one is used
	images = []models.ProductImage{
		{URL: "https://img.test/a.jpg", Position: 0},
		{URL: "https://img.test/b.jpg", Position: 1},
	}
	item = NewProductListItem(p, "", images)
	assert.Equal(t, "https://img.test/a.jpg", item.ImageURL)

	// no images at all
	item = NewProductListItem(p, "", nil)
	assert.Equal(t, "", item.ImageURL)
}
