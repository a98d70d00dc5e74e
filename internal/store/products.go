package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalog-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ProductFilter holds the optional parameters of the product list query.
// All supplied filters are combined with AND; Search matches any of the
// product name, description, SKU or category name.
type ProductFilter struct {
	MinPrice    *int64
	MaxPrice    *int64
	CategoryIDs []int64
	VendorID    *int64
	InStock     *bool
	Featured    *bool
	Search      string
	Ordering    string
}

var orderingColumns = map[string]string{
	models.OrderingPrice:     "p.price",
	models.OrderingCreatedAt: "p.created_at",
	models.OrderingName:      "p.name",
}

// orderClause translates an ordering key ("price", "-name", ...) into an
// ORDER BY clause, falling back to the default for unknown keys.
func orderClause(ordering string) string {
	if ordering == "" {
		ordering = models.DefaultOrdering
	}

	direction := "ASC"
	if strings.HasPrefix(ordering, "-") {
		direction = "DESC"
		ordering = ordering[1:]
	}

	column, ok := orderingColumns[ordering]
	if !ok {
		return "p.created_at DESC"
	}
	return column + " " + direction
}

// ListProducts retrieves active products matching the filter
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	conditions := []string{"p.is_active = TRUE"}
	args := []interface{}{}

	if f.MinPrice != nil {
		conditions = append(conditions, "p.price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "p.price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if len(f.CategoryIDs) > 0 {
		conditions = append(conditions, "p.category_id IN (?)")
		args = append(args, f.CategoryIDs)
	}
	if f.VendorID != nil {
		conditions = append(conditions, "p.vendor_id = ?")
		args = append(args, *f.VendorID)
	}
	if f.InStock != nil && *f.InStock {
		conditions = append(conditions, "p.quantity > 0")
	}
	if f.Featured != nil {
		conditions = append(conditions, "p.is_featured = ?")
		args = append(args, *f.Featured)
	}
	if f.Search != "" {
		conditions = append(conditions,
			"(p.name ILIKE ? OR p.description ILIKE ? OR p.sku ILIKE ? OR c.name ILIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := fmt.Sprintf(
		`SELECT p.* FROM products p
		 LEFT JOIN categories c ON c.id = p.category_id
		 WHERE %s
		 ORDER BY %s`,
		strings.Join(conditions, " AND "), orderClause(f.Ordering))

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build product query: %w", err)
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, expanded...)
	return products, err
}

// GetProductByID retrieves a product by ID regardless of active state
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetActiveProductBySlug retrieves an active product by slug
func (s *Store) GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE slug = $1 AND is_active = TRUE", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (
			name, slug, description, price, compare_at_price, cost_per_item,
			sku, barcode, quantity, low_stock_threshold, category_id, vendor_id,
			is_active, is_featured
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.Name, p.Slug, p.Description, p.Price, p.CompareAtPrice, p.CostPerItem,
		p.SKU, p.Barcode, p.Quantity, p.LowStockThreshold, p.CategoryID, p.VendorID,
		p.IsActive, p.IsFeatured)
}

// UniqueConflictError reports which entity hit a unique constraint during a
// multi-row write
type UniqueConflictError struct {
	Entity string
	Err    error
}

func (e *UniqueConflictError) Error() string {
	return fmt.Sprintf("%s conflicts with an existing row: %v", e.Entity, e.Err)
}

func (e *UniqueConflictError) Unwrap() error { return e.Err }

// CreateProductWithAssets inserts a product together with its images and
// variants in one transaction. A conflict on any row rolls back the whole
// creation.
func (s *Store) CreateProductWithAssets(ctx context.Context, p *models.Product, images []models.ProductImage, variants []models.ProductVariant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (
			name, slug, description, price, compare_at_price, cost_per_item,
			sku, barcode, quantity, low_stock_threshold, category_id, vendor_id,
			is_active, is_featured
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, p, query,
		p.Name, p.Slug, p.Description, p.Price, p.CompareAtPrice, p.CostPerItem,
		p.SKU, p.Barcode, p.Quantity, p.LowStockThreshold, p.CategoryID, p.VendorID,
		p.IsActive, p.IsFeatured); err != nil {
		if IsUniqueViolation(err) {
			return &UniqueConflictError{Entity: "product", Err: err}
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for i := range images {
		images[i].ProductID = p.ID
		if err := tx.GetContext(ctx, &images[i].ID,
			`INSERT INTO product_images (product_id, url, alt_text, is_primary, position)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			p.ID, images[i].URL, images[i].AltText, images[i].IsPrimary, images[i].Position); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	for i := range variants {
		variants[i].ProductID = p.ID
		if err := tx.GetContext(ctx, &variants[i].ID,
			`INSERT INTO product_variants (product_id, name, value, sku, price_adjustment, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			p.ID, variants[i].Name, variants[i].Value, variants[i].SKU,
			variants[i].PriceAdjustment, variants[i].Quantity); err != nil {
			if IsUniqueViolation(err) {
				return &UniqueConflictError{Entity: "variant", Err: err}
			}
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateProduct updates the mutable fields of a product
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, compare_at_price = $4,
		     cost_per_item = $5, barcode = $6, quantity = $7,
		     low_stock_threshold = $8, category_id = $9, is_featured = $10,
		     updated_at = NOW()
		 WHERE id = $11`,
		p.Name, p.Description, p.Price, p.CompareAtPrice,
		p.CostPerItem, p.Barcode, p.Quantity,
		p.LowStockThreshold, p.CategoryID, p.IsFeatured, p.ID)
	return err
}

// SoftDeleteProduct flips is_active to false
func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	return err
}

// AddProductImage inserts an image row for a product
func (s *Store) AddProductImage(ctx context.Context, img *models.ProductImage) error {
	query := `
		INSERT INTO product_images (product_id, url, alt_text, is_primary, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.db.GetContext(ctx, &img.ID, query,
		img.ProductID, img.URL, img.AltText, img.IsPrimary, img.Position)
}

// GetImagesByProductID retrieves images for a product in position order
func (s *Store) GetImagesByProductID(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := s.db.SelectContext(ctx, &images,
		"SELECT * FROM product_images WHERE product_id = $1 ORDER BY position, is_primary DESC",
		productID)
	return images, err
}

// GetImagesByProductIDs retrieves images for multiple products
func (s *Store) GetImagesByProductIDs(ctx context.Context, productIDs []int64) ([]models.ProductImage, error) {
	if len(productIDs) == 0 {
		return []models.ProductImage{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM product_images WHERE product_id IN (?) ORDER BY position, is_primary DESC",
		productIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var images []models.ProductImage
	err = s.db.SelectContext(ctx, &images, query, args...)
	return images, err
}

// SetPrimaryImage makes the given image the only primary one of the
// product. The unset and set run in one transaction so at most one row
// ever holds the flag.
func (s *Store) SetPrimaryImage(ctx context.Context, productID, imageID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE product_images SET is_primary = FALSE WHERE product_id = $1 AND is_primary = TRUE",
		productID)
	if err != nil {
		return false, fmt.Errorf("failed to clear primary image: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE product_images SET is_primary = TRUE WHERE id = $1 AND product_id = $2",
		imageID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to set primary image: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	return true, tx.Commit()
}

// AddProductVariant inserts a variant row for a product
func (s *Store) AddProductVariant(ctx context.Context, v *models.ProductVariant) error {
	query := `
		INSERT INTO product_variants (product_id, name, value, sku, price_adjustment, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.db.GetContext(ctx, &v.ID, query,
		v.ProductID, v.Name, v.Value, v.SKU, v.PriceAdjustment, v.Quantity)
}

// GetVariantsByProductID retrieves variants for a product
func (s *Store) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM product_variants WHERE product_id = $1 ORDER BY name, value",
		productID)
	return variants, err
}

// ProductStatistics holds the aggregate counters of the statistics report
type ProductStatistics struct {
	TotalProducts  int     `db:"total_products" json:"total_products"`
	ActiveProducts int     `db:"active_products" json:"active_products"`
	OutOfStock     int     `db:"out_of_stock" json:"out_of_stock"`
	LowStock       int     `db:"low_stock" json:"low_stock"`
	AverageRating  float64 `json:"average_rating"`
}

// GetProductStatistics computes store-wide aggregates, or vendor-scoped
// ones when vendorID is non-nil
func (s *Store) GetProductStatistics(ctx context.Context, vendorID *int64) (*ProductStatistics, error) {
	conditions := ""
	args := []interface{}{}
	if vendorID != nil {
		conditions = " WHERE vendor_id = $1"
		args = append(args, *vendorID)
	}

	var stats ProductStatistics
	query := fmt.Sprintf(
		`SELECT
			COUNT(*) AS total_products,
			COUNT(*) FILTER (WHERE is_active) AS active_products,
			COUNT(*) FILTER (WHERE quantity = 0) AS out_of_stock,
			COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= low_stock_threshold) AS low_stock
		 FROM products%s`, conditions)

	if err := s.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}

	avg, err := s.getAverageApprovedRating(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	stats.AverageRating = avg

	return &stats, nil
}

// getAverageApprovedRating averages approved review ratings, optionally
// restricted to one vendor's products. Returns 0 when no approved reviews
// exist in the scope.
func (s *Store) getAverageApprovedRating(ctx context.Context, vendorID *int64) (float64, error) {
	var avg sql.NullFloat64
	if vendorID != nil {
		err := s.db.GetContext(ctx, &avg,
			`SELECT AVG(r.rating)
			 FROM product_reviews r
			 JOIN products p ON p.id = r.product_id
			 WHERE r.is_approved = TRUE AND p.vendor_id = $1`,
			*vendorID)
		if err != nil {
			return 0, fmt.Errorf("failed to average ratings: %w", err)
		}
	} else {
		err := s.db.GetContext(ctx, &avg,
			"SELECT AVG(rating) FROM product_reviews WHERE is_approved = TRUE")
		if err != nil {
			return 0, fmt.Errorf("failed to average ratings: %w", err)
		}
	}

	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
