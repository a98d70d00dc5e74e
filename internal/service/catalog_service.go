package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"catalog-service/internal/auth"
	"catalog-service/internal/broker"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogStore is the storage surface the catalog service depends on
type CatalogStore interface {
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	CreateProductWithAssets(ctx context.Context, p *models.Product, images []models.ProductImage, variants []models.ProductVariant) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	SoftDeleteProduct(ctx context.Context, id int64) error
	GetImagesByProductID(ctx context.Context, productID int64) ([]models.ProductImage, error)
	GetImagesByProductIDs(ctx context.Context, productIDs []int64) ([]models.ProductImage, error)
	SetPrimaryImage(ctx context.Context, productID, imageID int64) (bool, error)
	GetVariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error)
	GetApprovedReviewsByProductID(ctx context.Context, productID int64) ([]models.ProductReview, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetActiveCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetActiveChildCategories(ctx context.Context, parentID int64) ([]models.Category, error)
	GetCategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error)
}

// CatalogService handles product listing, detail assembly and product
// writes
type CatalogService struct {
	store           CatalogStore
	eventPublisher  *broker.EventPublisher
	defaultLowStock int
	logger          *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, eventPublisher *broker.EventPublisher, defaultLowStock int) *CatalogService {
	return &CatalogService{
		store:           store,
		eventPublisher:  eventPublisher,
		defaultLowStock: defaultLowStock,
		logger:          util.GetLogger(),
	}
}

// ListProductsRequest carries the optional product list filters as parsed
// from the query string
type ListProductsRequest struct {
	MinPrice     *int64
	MaxPrice     *int64
	CategorySlug string
	VendorID     *int64
	InStock      *bool
	Featured     *bool
	Search       string
	Ordering     string
}

// ListProducts returns active products matching all supplied filters. A
// category slug resolves to that category plus its active direct children;
// an unknown slug is a lookup failure.
func (s *CatalogService) ListProducts(ctx context.Context, req *ListProductsRequest) ([]ProductListItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	filter := store.ProductFilter{
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		VendorID: req.VendorID,
		InStock:  req.InStock,
		Featured: req.Featured,
		Search:   req.Search,
		Ordering: req.Ordering,
	}

	if req.CategorySlug != "" {
		ids, err := s.resolveCategoryScope(ctx, req.CategorySlug)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = ids
	}

	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	util.SpanAttr(ctx, attribute.Int("products.matched", len(products)))

	items := make([]ProductListItem, 0, len(products))
	if len(products) == 0 {
		return items, nil
	}

	productIDs := make([]int64, 0, len(products))
	categoryIDSet := make(map[int64]struct{})
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		if p.CategoryID != nil {
			categoryIDSet[*p.CategoryID] = struct{}{}
		}
	}

	images, err := s.store.GetImagesByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load product images: %w", err)
	}
	imagesByProduct := make(map[int64][]models.ProductImage)
	for _, img := range images {
		imagesByProduct[img.ProductID] = append(imagesByProduct[img.ProductID], img)
	}

	categoryNames, err := s.categoryNames(ctx, categoryIDSet)
	if err != nil {
		return nil, err
	}

	for i := range products {
		p := &products[i]
		name := ""
		if p.CategoryID != nil {
			name = categoryNames[*p.CategoryID]
		}
		items = append(items, NewProductListItem(p, name, imagesByProduct[p.ID]))
	}

	return items, nil
}

// resolveCategoryScope maps a category slug to the IDs matched by the
// category filter: the category itself plus its active direct children.
// Grandchildren are deliberately out of scope.
func (s *CatalogService) resolveCategoryScope(ctx context.Context, slug string) ([]int64, error) {
	cat, err := s.store.GetActiveCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	if cat == nil {
		return nil, &NotFoundError{Resource: "category", Key: slug}
	}

	children, err := s.store.GetActiveChildCategories(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load child categories: %w", err)
	}

	ids := make([]int64, 0, len(children)+1)
	ids = append(ids, cat.ID)
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	return ids, nil
}

func (s *CatalogService) categoryNames(ctx context.Context, idSet map[int64]struct{}) (map[int64]string, error) {
	if len(idSet) == 0 {
		return map[int64]string{}, nil
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	cats, err := s.store.GetCategoriesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

// GetProduct returns the full computed view of an active product
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	product, err := s.store.GetActiveProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, &NotFoundError{Resource: "product", Key: slug}
	}

	images, err := s.store.GetImagesByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	variants, err := s.store.GetVariantsByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	reviews, err := s.store.GetApprovedReviewsByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	categoryName := ""
	if product.CategoryID != nil {
		cat, err := s.store.GetCategoryByID(ctx, *product.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load category: %w", err)
		}
		if cat != nil {
			categoryName = cat.Name
		}
	}

	return NewProductView(product, categoryName, images, variants, reviews), nil
}

// ProductImageInput describes an image supplied at product creation.
// Position is optional; images without one take their array index.
type ProductImageInput struct {
	URL       string `json:"url" binding:"required"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
	Position  *int   `json:"position"`
}

// ProductVariantInput describes a variant supplied at product creation
type ProductVariantInput struct {
	Name            string `json:"name" binding:"required"`
	Value           string `json:"value" binding:"required"`
	SKU             string `json:"sku" binding:"required"`
	PriceAdjustment int64  `json:"price_adjustment"`
	Quantity        int    `json:"quantity"`
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name              string                `json:"name" binding:"required"`
	Description       string                `json:"description"`
	Price             int64                 `json:"price" binding:"required"`
	CompareAtPrice    *int64                `json:"compare_at_price"`
	CostPerItem       *int64                `json:"cost_per_item"`
	SKU               string                `json:"sku" binding:"required"`
	Barcode           string                `json:"barcode"`
	Quantity          int                   `json:"quantity"`
	LowStockThreshold *int                  `json:"low_stock_threshold"`
	CategoryID        *int64                `json:"category_id"`
	IsFeatured        bool                  `json:"is_featured"`
	Images            []ProductImageInput   `json:"images"`
	Variants          []ProductVariantInput `json:"variants"`
}

// CreateProduct creates a product owned by the calling vendor
func (s *CatalogService) CreateProduct(ctx context.Context, identity *auth.Identity, req *CreateProductRequest) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if !identity.IsVendor {
		return nil, &ForbiddenError{Reason: "vendor capability required to create products"}
	}

	if err := validateProductFields(req.Price, req.CompareAtPrice, req.Quantity); err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.checkCategoryActive(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	threshold := s.defaultLowStock
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	product := &models.Product{
		Name:              req.Name,
		Slug:              slugify(req.Name),
		Description:       req.Description,
		Price:             req.Price,
		CompareAtPrice:    req.CompareAtPrice,
		CostPerItem:       req.CostPerItem,
		SKU:               req.SKU,
		Barcode:           req.Barcode,
		Quantity:          req.Quantity,
		LowStockThreshold: threshold,
		CategoryID:        req.CategoryID,
		VendorID:          identity.UserID,
		IsActive:          true,
		IsFeatured:        req.IsFeatured,
	}

	primarySeen := false
	images := make([]models.ProductImage, 0, len(req.Images))
	for i, in := range req.Images {
		isPrimary := in.IsPrimary && !primarySeen
		if isPrimary {
			primarySeen = true
		}
		position := i
		if in.Position != nil {
			position = *in.Position
		}
		images = append(images, models.ProductImage{
			URL:       in.URL,
			AltText:   in.AltText,
			IsPrimary: isPrimary,
			Position:  position,
		})
	}

	variants := make([]models.ProductVariant, 0, len(req.Variants))
	for _, in := range req.Variants {
		variants = append(variants, models.ProductVariant{
			Name:            in.Name,
			Value:           in.Value,
			SKU:             in.SKU,
			PriceAdjustment: in.PriceAdjustment,
			Quantity:        in.Quantity,
		})
	}

	if err := s.store.CreateProductWithAssets(ctx, product, images, variants); err != nil {
		var conflict *store.UniqueConflictError
		if errors.As(err, &conflict) {
			if conflict.Entity == "variant" {
				return nil, NewValidationError("variants", "duplicate variant or variant SKU")
			}
			return nil, NewValidationError("sku", "a product with this SKU or slug already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("slug", product.Slug),
		zap.Int64("vendor_id", product.VendorID))

	s.publishProductEvent(ctx, models.EventTypeProductCreated, product)

	return s.GetProduct(ctx, product.Slug)
}

// UpdateProductRequest represents a request to update a product. Nil fields
// are left unchanged.
type UpdateProductRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	Price             *int64  `json:"price"`
	CompareAtPrice    *int64  `json:"compare_at_price"`
	CostPerItem       *int64  `json:"cost_per_item"`
	Barcode           *string `json:"barcode"`
	Quantity          *int    `json:"quantity"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	CategoryID        *int64  `json:"category_id"`
	IsFeatured        *bool   `json:"is_featured"`
}

// UpdateProduct applies a partial update to a product owned by the caller
func (s *CatalogService) UpdateProduct(ctx context.Context, identity *auth.Identity, slug string, req *UpdateProductRequest) (*ProductView, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	product, err := s.store.GetActiveProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, &NotFoundError{Resource: "product", Key: slug}
	}

	if !identity.CanManageProduct(product.VendorID) {
		return nil, &ForbiddenError{Reason: "only the owning vendor or staff may edit this product"}
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CompareAtPrice != nil {
		product.CompareAtPrice = req.CompareAtPrice
	}
	if req.CostPerItem != nil {
		product.CostPerItem = req.CostPerItem
	}
	if req.Barcode != nil {
		product.Barcode = *req.Barcode
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.CategoryID != nil {
		if err := s.checkCategoryActive(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = req.CategoryID
	}

	if err := validateProductFields(product.Price, product.CompareAtPrice, product.Quantity); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.Int64("product_id", product.ID))
	s.publishProductEvent(ctx, models.EventTypeProductUpdated, product)

	return s.GetProduct(ctx, product.Slug)
}

// DeleteProduct soft-deletes a product owned by the caller
func (s *CatalogService) DeleteProduct(ctx context.Context, identity *auth.Identity, slug string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	product, err := s.store.GetActiveProductBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return &NotFoundError{Resource: "product", Key: slug}
	}

	if !identity.CanManageProduct(product.VendorID) {
		return &ForbiddenError{Reason: "only the owning vendor or staff may delete this product"}
	}

	if err := s.store.SoftDeleteProduct(ctx, product.ID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product soft-deleted", zap.Int64("product_id", product.ID))
	s.publishProductEvent(ctx, models.EventTypeProductDeleted, product)

	return nil
}

// SetPrimaryImage makes one image the single primary image of a product
func (s *CatalogService) SetPrimaryImage(ctx context.Context, identity *auth.Identity, slug string, imageID int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetPrimaryImage")
	defer span.End()

	product, err := s.store.GetActiveProductBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return &NotFoundError{Resource: "product", Key: slug}
	}

	if !identity.CanManageProduct(product.VendorID) {
		return &ForbiddenError{Reason: "only the owning vendor or staff may manage product images"}
	}

	found, err := s.store.SetPrimaryImage(ctx, product.ID, imageID)
	if err != nil {
		return fmt.Errorf("failed to set primary image: %w", err)
	}
	if !found {
		return &NotFoundError{Resource: "image", Key: fmt.Sprintf("%d", imageID)}
	}

	return nil
}

func (s *CatalogService) checkCategoryActive(ctx context.Context, id int64) error {
	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil || !cat.IsActive {
		return NewValidationError("category_id", "category does not exist or is inactive")
	}
	return nil
}

func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, product *models.Product) {
	if s.eventPublisher == nil {
		return
	}

	event := &models.ProductEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		ProductID:         product.ID,
		Slug:              product.Slug,
		VendorID:          product.VendorID,
		Quantity:          product.Quantity,
		LowStockThreshold: product.LowStockThreshold,
	}

	if err := s.eventPublisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish product event",
			zap.String("event_type", eventType),
			zap.Int64("product_id", product.ID),
			zap.Error(err))
	}
}

// validateProductFields enforces the validation-boundary invariants:
// price > 0, quantity >= 0, compare_at_price > 0 when present
func validateProductFields(price int64, compareAt *int64, quantity int) error {
	fields := map[string]string{}
	if price <= 0 {
		fields["price"] = "price must be greater than 0"
	}
	if quantity < 0 {
		fields["quantity"] = "quantity cannot be negative"
	}
	if compareAt != nil && *compareAt <= 0 {
		fields["compare_at_price"] = "compare_at_price must be greater than 0"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL slug from a product or category name
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
