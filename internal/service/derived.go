package service

import (
	"math"
	"time"

	"catalog-service/internal/models"
)

// Derived product attributes are pure functions of already-loaded state.
// Nothing here touches storage or caches; values are recomputed on every
// read.

// InStock reports whether a product has any stock
func InStock(p *models.Product) bool {
	return p.Quantity > 0
}

// LowStock reports whether stock is above zero but at or below the
// product's threshold
func LowStock(p *models.Product) bool {
	return p.Quantity > 0 && p.Quantity <= p.LowStockThreshold
}

// DiscountPercentage returns the markdown against compare_at_price in
// percent, rounded to two decimals. Zero when there is no compare-at price
// or it does not exceed the price.
func DiscountPercentage(p *models.Product) float64 {
	if p.CompareAtPrice == nil || *p.CompareAtPrice <= p.Price {
		return 0
	}
	discount := float64(*p.CompareAtPrice-p.Price) / float64(*p.CompareAtPrice) * 100
	return round2(discount)
}

// AverageRating averages the ratings of approved reviews, rounded to two
// decimals. Zero when none are approved.
func AverageRating(reviews []models.ProductReview) float64 {
	sum, count := 0, 0
	for _, r := range reviews {
		if r.IsApproved {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round2(float64(sum) / float64(count))
}

// ApprovedReviewCount counts approved reviews
func ApprovedReviewCount(reviews []models.ProductReview) int {
	count := 0
	for _, r := range reviews {
		if r.IsApproved {
			count++
		}
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProductView is the full computed view of a product: stored fields plus
// derived attributes and child collections
type ProductView struct {
	models.Product
	CategoryName       string                  `json:"category_name,omitempty"`
	InStock            bool                    `json:"in_stock"`
	LowStock           bool                    `json:"low_stock"`
	DiscountPercentage float64                 `json:"discount_percentage"`
	AverageRating      float64                 `json:"average_rating"`
	ReviewCount        int                     `json:"review_count"`
	Images             []models.ProductImage   `json:"images"`
	Variants           []models.ProductVariant `json:"variants"`
	Reviews            []models.ProductReview  `json:"reviews"`
}

// ProductListItem is the condensed view used by the list endpoint
type ProductListItem struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Price              int64     `json:"price"`
	CompareAtPrice     *int64    `json:"compare_at_price,omitempty"`
	DiscountPercentage float64   `json:"discount_percentage"`
	CategoryName       string    `json:"category_name,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	InStock            bool      `json:"in_stock"`
	IsFeatured         bool      `json:"is_featured"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewProductView assembles the computed view from loaded rows. Reviews must
// already be restricted to approved ones by the caller.
func NewProductView(
	p *models.Product,
	categoryName string,
	images []models.ProductImage,
	variants []models.ProductVariant,
	approvedReviews []models.ProductReview,
) *ProductView {
	if images == nil {
		images = []models.ProductImage{}
	}
	if variants == nil {
		variants = []models.ProductVariant{}
	}
	if approvedReviews == nil {
		approvedReviews = []models.ProductReview{}
	}

	return &ProductView{
		Product:            *p,
		CategoryName:       categoryName,
		InStock:            InStock(p),
		LowStock:           LowStock(p),
		DiscountPercentage: DiscountPercentage(p),
		AverageRating:      AverageRating(approvedReviews),
		ReviewCount:        len(approvedReviews),
		Images:             images,
		Variants:           variants,
		Reviews:            approvedReviews,
	}
}

// NewProductListItem assembles the condensed list view. The image falls
// back from the primary one to the first by position.
func NewProductListItem(p *models.Product, categoryName string, images []models.ProductImage) ProductListItem {
	imageURL := ""
	for _, img := range images {
		if img.IsPrimary {
			imageURL = img.URL
			break
		}
	}
	if imageURL == "" && len(images) > 0 {
		imageURL = images[0].URL
	}

	return ProductListItem{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Price:              p.Price,
		CompareAtPrice:     p.CompareAtPrice,
		DiscountPercentage: DiscountPercentage(p),
		CategoryName:       categoryName,
		ImageURL:           imageURL,
		InStock:            InStock(p),
		IsFeatured:         p.IsFeatured,
		CreatedAt:          p.CreatedAt,
	}
}
