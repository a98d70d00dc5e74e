package service

import (
	"context"
	"testing"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"
	"catalog-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type fakeCatalogStore struct {
	CatalogStore
	categoryBySlug  map[string]*models.Category
	childrenOf      map[int64][]models.Category
	lastFilter      *store.ProductFilter
	listResult      []models.Product
	createErr       error
	createdProduct  *models.Product
	createdImages   []models.ProductImage
	createdVariants []models.ProductVariant
}

func (f *fakeCatalogStore) GetActiveCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return f.categoryBySlug[slug], nil
}

func (f *fakeCatalogStore) GetActiveChildCategories(ctx context.Context, parentID int64) ([]models.Category, error) {
	return f.childrenOf[parentID], nil
}

func (f *fakeCatalogStore) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	f.lastFilter = &filter
	return f.listResult, nil
}

func (f *fakeCatalogStore) CreateProductWithAssets(ctx context.Context, p *models.Product, images []models.ProductImage, variants []models.ProductVariant) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = 1
	f.createdProduct = p
	f.createdImages = images
	f.createdVariants = variants
	return nil
}

func (f *fakeCatalogStore) GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if f.createdProduct != nil && f.createdProduct.Slug == slug {
		return f.createdProduct, nil
	}
	return nil, nil
}

func (f *fakeCatalogStore) GetImagesByProductID(ctx context.Context, productID int64) ([]models.ProductImage, error) {
	return f.createdImages, nil
}

func (f *fakeCatalogStore) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	return f.createdVariants, nil
}

func (f *fakeCatalogStore) GetApprovedReviewsByProductID(ctx context.Context, productID int64) ([]models.ProductReview, error) {
	return nil, nil
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "desk-lamp", slugify("Desk Lamp"))
	assert.Equal(t, "shop-24-7", slugify("  Shop 24/7 "))
	assert.Equal(t, "usb-c-cable", slugify("USB-C   Cable!"))
	assert.Equal(t, "plain", slugify("plain"))
}

func TestValidateProductFields(t *testing.T) {
	assert.NoError(t, validateProductFields(1000, nil, 0))
	assert.NoError(t, validateProductFields(1, int64Ptr(2), 5))

	err := validateProductFields(0, nil, 0)
	require.Error(t, err)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "price")

	err = validateProductFields(1000, nil, -1)
	require.Error(t, err)
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "quantity")

	err = validateProductFields(1000, int64Ptr(0), 0)
	require.Error(t, err)
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "compare_at_price")

	// failures accumulate per field
	err = validateProductFields(-5, nil, -1)
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)
}

func TestListProductsCategoryScope(t *testing.T) {
	// "shoes" matches itself and its active direct children, not
	// grandchildren
	fs := &fakeCatalogStore{
		categoryBySlug: map[string]*models.Category{
			"shoes": {ID: 1, Slug: "shoes"},
		},
		childrenOf: map[int64][]models.Category{
			1: {{ID: 2}, {ID: 3}},
			2: {{ID: 4}},
		},
	}
	s := NewCatalogService(fs, nil, 10)

	_, err := s.ListProducts(context.Background(), &ListProductsRequest{CategorySlug: "shoes"})
	require.NoError(t, err)

	require.NotNil(t, fs.lastFilter)
	assert.Equal(t, []int64{1, 2, 3}, fs.lastFilter.CategoryIDs)
	assert.NotContains(t, fs.lastFilter.CategoryIDs, int64(4))
}

func TestListProductsUnknownCategory(t *testing.T) {
	fs := &fakeCatalogStore{categoryBySlug: map[string]*models.Category{}}
	s := NewCatalogService(fs, nil, 10)

	_, err := s.ListProducts(context.Background(), &ListProductsRequest{CategorySlug: "nope"})
	assert.True(t, IsNotFound(err))
}

func TestCreateProductRequiresVendor(t *testing.T) {
	s := NewCatalogService(&fakeCatalogStore{}, nil, 10)

	_, err := s.CreateProduct(context.Background(), &auth.Identity{UserID: 1}, &CreateProductRequest{
		Name:  "Desk Lamp",
		Price: 10000,
		SKU:   "LAMP-001",
	})
	assert.True(t, IsForbidden(err))
}

func TestCreateProductConflictMapping(t *testing.T) {
	identity := &auth.Identity{UserID: 1, IsVendor: true}
	req := &CreateProductRequest{Name: "Desk Lamp", Price: 10000, SKU: "LAMP-001"}

	fs := &fakeCatalogStore{createErr: &store.UniqueConflictError{Entity: "variant"}}
	s := NewCatalogService(fs, nil, 10)
	_, err := s.CreateProduct(context.Background(), identity, req)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "variants")

	fs = &fakeCatalogStore{createErr: &store.UniqueConflictError{Entity: "product"}}
	s = NewCatalogService(fs, nil, 10)
	_, err = s.CreateProduct(context.Background(), identity, req)
	ve, ok = AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "sku")
}

func TestCreateProductImagePositions(t *testing.T) {
	fs := &fakeCatalogStore{}
	s := NewCatalogService(fs, nil, 10)

	_, err := s.CreateProduct(context.Background(), &auth.Identity{UserID: 1, IsVendor: true}, &CreateProductRequest{
		Name:  "Desk Lamp",
		Price: 10000,
		SKU:   "LAMP-001",
		Images: []ProductImageInput{
			{URL: "https://img.test/a.jpg"},
			{URL: "https://img.test/b.jpg", Position: intPtr(0), IsPrimary: true},
			{URL: "https://img.test/c.jpg"},
		},
	})
	require.NoError(t, err)

	require.Len(t, fs.createdImages, 3)
	// omitted positions default to the array index; an explicit 0 is kept
	assert.Equal(t, 0, fs.createdImages[0].Position)
	assert.Equal(t, 0, fs.createdImages[1].Position)
	assert.Equal(t, 2, fs.createdImages[2].Position)
	assert.True(t, fs.createdImages[1].IsPrimary)
	assert.False(t, fs.createdImages[0].IsPrimary)
}

func TestCreateProductSinglePrimaryImage(t *testing.T) {
	fs := &fakeCatalogStore{}
	s := NewCatalogService(fs, nil, 10)

	_, err := s.CreateProduct(context.Background(), &auth.Identity{UserID: 1, IsVendor: true}, &CreateProductRequest{
		Name:  "Desk Lamp",
		Price: 10000,
		SKU:   "LAMP-001",
		Images: []ProductImageInput{
			{URL: "https://img.test/a.jpg", IsPrimary: true},
			{URL: "https://img.test/b.jpg", IsPrimary: true},
		},
	})
	require.NoError(t, err)

	require.Len(t, fs.createdImages, 2)
	assert.True(t, fs.createdImages[0].IsPrimary)
	assert.False(t, fs.createdImages[1].IsPrimary)
}
