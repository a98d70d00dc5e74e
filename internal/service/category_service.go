package service

import (
	"context"
	"fmt"
	"strconv"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// CategoryStore is the storage surface the category service depends on
type CategoryStore interface {
	GetActiveCategories(ctx context.Context, search string) ([]models.Category, error)
	CountActiveProductsByCategory(ctx context.Context) (map[int64]int, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, cat *models.Category) error
	UpdateCategory(ctx context.Context, cat *models.Category) error
	SoftDeleteCategory(ctx context.Context, id int64) error
}

// CategoryService handles the category tree and category writes
type CategoryService struct {
	store  CategoryStore
	logger *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CategoryView is a category with its active children nested recursively
// and a count of its own active products. The count deliberately excludes
// descendants' products; the inclusive one-level semantics exist only in
// the product filter.
type CategoryView struct {
	models.Category
	Children     []CategoryView `json:"children"`
	ProductCount int            `json:"product_count"`
}

// ListCategories returns the active category forest, roots first, each
// node carrying its active children
func (s *CategoryService) ListCategories(ctx context.Context, search string) ([]CategoryView, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.ListCategories")
	defer span.End()

	cats, err := s.store.GetActiveCategories(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	counts, err := s.store.CountActiveProductsByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	return buildCategoryForest(cats, counts), nil
}

// GetCategory returns one category with its nested children
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*CategoryView, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.GetCategory")
	defer span.End()

	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil || !cat.IsActive {
		return nil, &NotFoundError{Resource: "category", Key: strconv.FormatInt(id, 10)}
	}

	cats, err := s.store.GetActiveCategories(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	counts, err := s.store.CountActiveProductsByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	view := buildCategorySubtree(*cat, cats, counts)
	return &view, nil
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

// CreateCategory creates a category; staff only
func (s *CategoryService) CreateCategory(ctx context.Context, identity *auth.Identity, req *CreateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.CreateCategory")
	defer span.End()

	if !identity.IsStaff {
		return nil, &ForbiddenError{Reason: "staff capability required to manage categories"}
	}

	if req.ParentID != nil {
		parent, err := s.store.GetCategoryByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		if parent == nil || !parent.IsActive {
			return nil, NewValidationError("parent_id", "parent category does not exist or is inactive")
		}
	}

	cat := &models.Category{
		Name:        req.Name,
		Slug:        slugify(req.Name),
		Description: req.Description,
		ParentID:    req.ParentID,
		IsActive:    true,
	}

	if err := s.store.CreateCategory(ctx, cat); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, NewValidationError("name", "a category with this name already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("Category created",
		zap.Int64("category_id", cat.ID),
		zap.String("slug", cat.Slug))

	return cat, nil
}

// UpdateCategoryRequest represents a partial category update
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategory applies a partial update to a category; staff only
func (s *CategoryService) UpdateCategory(ctx context.Context, identity *auth.Identity, id int64, req *UpdateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CategoryService.UpdateCategory")
	defer span.End()

	if !identity.IsStaff {
		return nil, &ForbiddenError{Reason: "staff capability required to manage categories"}
	}

	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return nil, &NotFoundError{Resource: "category", Key: strconv.FormatInt(id, 10)}
	}

	// slug stays stable after creation so existing links keep resolving
	if req.Name != nil {
		cat.Name = *req.Name
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if req.ParentID != nil {
		if *req.ParentID == cat.ID {
			return nil, NewValidationError("parent_id", "a category cannot be its own parent")
		}
		parent, err := s.store.GetCategoryByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		if parent == nil || !parent.IsActive {
			return nil, NewValidationError("parent_id", "parent category does not exist or is inactive")
		}
		cat.ParentID = req.ParentID
	}

	if err := s.store.UpdateCategory(ctx, cat); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, NewValidationError("name", "a category with this name already exists")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.logger.Info("Category updated", zap.Int64("category_id", cat.ID))
	return cat, nil
}

// DeleteCategory soft-deletes a category; staff only. Products referencing
// it are untouched.
func (s *CategoryService) DeleteCategory(ctx context.Context, identity *auth.Identity, id int64) error {
	ctx, span := util.StartSpan(ctx, "CategoryService.DeleteCategory")
	defer span.End()

	if !identity.IsStaff {
		return &ForbiddenError{Reason: "staff capability required to manage categories"}
	}

	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil || !cat.IsActive {
		return &NotFoundError{Resource: "category", Key: strconv.FormatInt(id, 10)}
	}

	if err := s.store.SoftDeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("Category soft-deleted", zap.Int64("category_id", id))
	return nil
}

// buildCategoryForest nests active categories under their parents and
// returns the roots. A child whose parent is inactive (absent from the
// slice) surfaces as a root rather than disappearing.
func buildCategoryForest(cats []models.Category, counts map[int64]int) []CategoryView {
	present := make(map[int64]bool, len(cats))
	for _, c := range cats {
		present[c.ID] = true
	}

	childrenOf := make(map[int64][]models.Category)
	roots := []models.Category{}
	for _, c := range cats {
		if c.ParentID != nil && present[*c.ParentID] {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		} else {
			roots = append(roots, c)
		}
	}

	views := make([]CategoryView, 0, len(roots))
	for _, root := range roots {
		views = append(views, buildCategoryView(root, childrenOf, counts))
	}
	return views
}

func buildCategoryView(cat models.Category, childrenOf map[int64][]models.Category, counts map[int64]int) CategoryView {
	children := make([]CategoryView, 0, len(childrenOf[cat.ID]))
	for _, child := range childrenOf[cat.ID] {
		children = append(children, buildCategoryView(child, childrenOf, counts))
	}
	return CategoryView{
		Category:     cat,
		Children:     children,
		ProductCount: counts[cat.ID],
	}
}

func buildCategorySubtree(cat models.Category, all []models.Category, counts map[int64]int) CategoryView {
	childrenOf := make(map[int64][]models.Category)
	for _, c := range all {
		if c.ParentID != nil {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		}
	}
	return buildCategoryView(cat, childrenOf, counts)
}
