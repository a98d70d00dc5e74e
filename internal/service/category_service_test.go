package service

import (
	"context"
	"testing"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategoryStore struct {
	CategoryStore
	byID    map[int64]*models.Category
	updated *models.Category
}

func (f *fakeCategoryStore) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	return f.byID[id], nil
}

func (f *fakeCategoryStore) UpdateCategory(ctx context.Context, cat *models.Category) error {
	f.updated = cat
	return nil
}

func TestUpdateCategoryKeepsSlug(t *testing.T) {
	fs := &fakeCategoryStore{
		byID: map[int64]*models.Category{
			1: {ID: 1, Name: "Shoes", Slug: "shoes", IsActive: true},
		},
	}
	s := NewCategoryService(fs)
	staff := &auth.Identity{UserID: 1, IsStaff: true}

	name := "Footwear"
	cat, err := s.UpdateCategory(context.Background(), staff, 1, &UpdateCategoryRequest{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Footwear", cat.Name)
	assert.Equal(t, "shoes", cat.Slug)
	require.NotNil(t, fs.updated)
	assert.Equal(t, "shoes", fs.updated.Slug)
}

func TestUpdateCategoryRequiresStaff(t *testing.T) {
	s := NewCategoryService(&fakeCategoryStore{})

	name := "Footwear"
	_, err := s.UpdateCategory(context.Background(), &auth.Identity{UserID: 2}, 1, &UpdateCategoryRequest{Name: &name})
	assert.True(t, IsForbidden(err))
}

func TestBuildCategoryForest(t *testing.T) {
	cats := []models.Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Laptops", ParentID: int64Ptr(1)},
		{ID: 3, Name: "Phones", ParentID: int64Ptr(1)},
		{ID: 4, Name: "Books"},
	}
	counts := map[int64]int{1: 2, 2: 5}

	forest := buildCategoryForest(cats, counts)

	require.Len(t, forest, 2)
	assert.Equal(t, "Electronics", forest[0].Name)
	assert.Equal(t, 2, forest[0].ProductCount)
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "Laptops", forest[0].Children[0].Name)
	assert.Equal(t, 5, forest[0].Children[0].ProductCount)

	assert.Equal(t, "Books", forest[1].Name)
	assert.Empty(t, forest[1].Children)
	assert.Equal(t, 0, forest[1].ProductCount)
}

func TestBuildCategoryForestOrphanedChild(t *testing.T) {
	// a child whose parent was deactivated surfaces as a root
	cats := []models.Category{
		{ID: 2, Name: "Laptops", ParentID: int64Ptr(1)},
		{ID: 3, Name: "Gaming Laptops", ParentID: int64Ptr(2)},
	}

	forest := buildCategoryForest(cats, nil)

	require.Len(t, forest, 1)
	assert.Equal(t, "Laptops", forest[0].Name)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Gaming Laptops", forest[0].Children[0].Name)
}

func TestBuildCategorySubtree(t *testing.T) {
	cats := []models.Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Laptops", ParentID: int64Ptr(1)},
		{ID: 3, Name: "Gaming Laptops", ParentID: int64Ptr(2)},
		{ID: 4, Name: "Books"},
	}

	view := buildCategorySubtree(cats[1], cats, map[int64]int{3: 7})

	assert.Equal(t, "Laptops", view.Name)
	require.Len(t, view.Children, 1)
	assert.Equal(t, "Gaming Laptops", view.Children[0].Name)
	assert.Equal(t, 7, view.Children[0].ProductCount)
	assert.Empty(t, view.Children[0].Children)
}
