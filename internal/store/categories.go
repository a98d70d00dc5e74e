package store

import (
	"context"
	"database/sql"

	"catalog-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, parent_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, cat, query,
		cat.Name, cat.Slug, cat.Description, cat.ParentID, cat.IsActive)
}

// GetCategoryByID retrieves a category by ID regardless of active state
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var cat models.Category
	err := s.db.GetContext(ctx, &cat, "SELECT * FROM categories WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetActiveCategoryBySlug retrieves an active category by slug
func (s *Store) GetActiveCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	err := s.db.GetContext(ctx, &cat,
		"SELECT * FROM categories WHERE slug = $1 AND is_active = TRUE", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetActiveCategories retrieves all active categories, optionally narrowed
// by a case-insensitive search on name and description
func (s *Store) GetActiveCategories(ctx context.Context, search string) ([]models.Category, error) {
	var cats []models.Category
	if search != "" {
		err := s.db.SelectContext(ctx, &cats,
			`SELECT * FROM categories
			 WHERE is_active = TRUE AND (name ILIKE $1 OR description ILIKE $1)
			 ORDER BY name`,
			"%"+search+"%")
		return cats, err
	}
	err := s.db.SelectContext(ctx, &cats,
		"SELECT * FROM categories WHERE is_active = TRUE ORDER BY name")
	return cats, err
}

// GetActiveChildCategories retrieves the active direct children of a category
func (s *Store) GetActiveChildCategories(ctx context.Context, parentID int64) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.SelectContext(ctx, &cats,
		"SELECT * FROM categories WHERE parent_id = $1 AND is_active = TRUE ORDER BY name",
		parentID)
	return cats, err
}

// GetCategoriesByIDs retrieves multiple categories by ID
func (s *Store) GetCategoriesByIDs(ctx context.Context, ids []int64) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM categories WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var cats []models.Category
	err = s.db.SelectContext(ctx, &cats, query, args...)
	return cats, err
}

// UpdateCategory updates the mutable fields of a category
func (s *Store) UpdateCategory(ctx context.Context, cat *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories
		 SET name = $1, slug = $2, description = $3, parent_id = $4, is_active = $5, updated_at = NOW()
		 WHERE id = $6`,
		cat.Name, cat.Slug, cat.Description, cat.ParentID, cat.IsActive, cat.ID)
	return err
}

// SoftDeleteCategory flips is_active to false. Products keep their
// category_id; they simply stop matching the active-category filters.
func (s *Store) SoftDeleteCategory(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE categories SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	return err
}

// CountActiveProductsByCategory returns per-category counts of active
// products, own products only (children are not included)
func (s *Store) CountActiveProductsByCategory(ctx context.Context) (map[int64]int, error) {
	rows := []struct {
		CategoryID int64 `db:"category_id"`
		Count      int   `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT category_id, COUNT(*) AS count
		 FROM products
		 WHERE is_active = TRUE AND category_id IS NOT NULL
		 GROUP BY category_id`)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}
