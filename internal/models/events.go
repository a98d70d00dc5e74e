package models

import "time"

// Event types
const (
	EventTypeProductCreated  = "PRODUCT_CREATED"
	EventTypeProductUpdated  = "PRODUCT_UPDATED"
	EventTypeProductDeleted  = "PRODUCT_DELETED"
	EventTypeReviewSubmitted = "REVIEW_SUBMITTED"
	EventTypeStockLow        = "STOCK_LOW"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductEvent published when a product is created, updated or soft-deleted
type ProductEvent struct {
	BaseEvent
	ProductID         int64  `json:"product_id"`
	Slug              string `json:"slug"`
	VendorID          int64  `json:"vendor_id"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// ReviewSubmittedEvent published when a review is created or edited and is
// awaiting moderation
type ReviewSubmittedEvent struct {
	BaseEvent
	ReviewID  int64 `json:"review_id"`
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	Rating    int   `json:"rating"`
}

// StockLowEvent published by the stock-alert worker when a product crosses
// its low-stock threshold
type StockLowEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Slug      string `json:"slug"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}
