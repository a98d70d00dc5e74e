package models

import "time"

// Category is a node in the category tree. Parent is nil for root
// categories. Deactivation (is_active=false) is the only form of deletion.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	ParentID    *int64    `db:"parent_id" json:"parent_id,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog item. Monetary fields are in minor currency units
// (cents). CompareAtPrice and CostPerItem are optional.
type Product struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Slug              string    `db:"slug" json:"slug"`
	Description       string    `db:"description" json:"description"`
	Price             int64     `db:"price" json:"price"`
	CompareAtPrice    *int64    `db:"compare_at_price" json:"compare_at_price,omitempty"`
	CostPerItem       *int64    `db:"cost_per_item" json:"cost_per_item,omitempty"`
	SKU               string    `db:"sku" json:"sku"`
	Barcode           string    `db:"barcode" json:"barcode,omitempty"`
	Quantity          int       `db:"quantity" json:"quantity"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	CategoryID        *int64    `db:"category_id" json:"category_id,omitempty"`
	VendorID          int64     `db:"vendor_id" json:"vendor_id"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	IsFeatured        bool      `db:"is_featured" json:"is_featured"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ProductImage belongs to one product. At most one image per product may be
// primary; the store enforces the swap atomically.
type ProductImage struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	URL       string `db:"url" json:"url"`
	AltText   string `db:"alt_text" json:"alt_text,omitempty"`
	IsPrimary bool   `db:"is_primary" json:"is_primary"`
	Position  int    `db:"position" json:"position"`
}

// ProductVariant is unique per (product, name, value). Its SKU is unique
// store-wide.
type ProductVariant struct {
	ID              int64  `db:"id" json:"id"`
	ProductID       int64  `db:"product_id" json:"product_id"`
	Name            string `db:"name" json:"name"`
	Value           string `db:"value" json:"value"`
	SKU             string `db:"sku" json:"sku"`
	PriceAdjustment int64  `db:"price_adjustment" json:"price_adjustment"`
	Quantity        int    `db:"quantity" json:"quantity"`
}

// ProductReview is unique per (product, user). Only approved reviews are
// publicly visible and counted in rating aggregates.
type ProductReview struct {
	ID         int64     `db:"id" json:"id"`
	ProductID  int64     `db:"product_id" json:"product_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Rating     int       `db:"rating" json:"rating"`
	Title      string    `db:"title" json:"title"`
	Comment    string    `db:"comment" json:"comment"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// User is an account with capability flags. IsVendor gates product
// creation, IsStaff gates category writes and store-wide statistics.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name,omitempty"`
	LastName     string    `db:"last_name" json:"last_name,omitempty"`
	IsVendor     bool      `db:"is_vendor" json:"is_vendor"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Ordering keys accepted by the product list endpoint. A leading '-'
// reverses the direction.
const (
	OrderingPrice     = "price"
	OrderingCreatedAt = "created_at"
	OrderingName      = "name"

	DefaultOrdering = "-created_at"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
