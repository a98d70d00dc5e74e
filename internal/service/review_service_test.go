package service

import (
	"context"
	"testing"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewStore struct {
	ReviewStore
	product   *models.Product
	existing  *models.ProductReview
	byID      map[int64]*models.ProductReview
	createErr error
	updated   *models.ProductReview
}

func (f *fakeReviewStore) GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if f.product != nil && f.product.Slug == slug {
		return f.product, nil
	}
	return nil, nil
}

func (f *fakeReviewStore) GetReviewByProductAndUser(ctx context.Context, productID, userID int64) (*models.ProductReview, error) {
	return f.existing, nil
}

func (f *fakeReviewStore) CreateReview(ctx context.Context, review *models.ProductReview) error {
	if f.createErr != nil {
		return f.createErr
	}
	review.ID = 1
	return nil
}

func (f *fakeReviewStore) GetReviewByID(ctx context.Context, id int64) (*models.ProductReview, error) {
	return f.byID[id], nil
}

func (f *fakeReviewStore) UpdateReview(ctx context.Context, review *models.ProductReview) error {
	f.updated = review
	return nil
}

func TestCreateReviewRatingBounds(t *testing.T) {
	s := NewReviewService(nil, nil)
	identity := &auth.Identity{UserID: 1}

	// out-of-range ratings fail validation before any storage access
	for _, rating := range []int{0, -1, 6, 100} {
		_, err := s.CreateReview(context.Background(), identity, "desk-lamp", &CreateReviewRequest{
			Rating: rating,
			Title:  "t",
		})
		require.Error(t, err)
		ve, ok := AsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "rating")
	}
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	fs := &fakeReviewStore{
		product:  &models.Product{ID: 1, Slug: "desk-lamp"},
		existing: &models.ProductReview{ID: 5, ProductID: 1, UserID: 3},
	}
	s := NewReviewService(fs, nil)

	_, err := s.CreateReview(context.Background(), &auth.Identity{UserID: 3}, "desk-lamp", &CreateReviewRequest{
		Rating: 4,
		Title:  "again",
	})
	require.Error(t, err)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "product")
}

func TestCreateReviewDuplicateRace(t *testing.T) {
	// the pre-check misses a concurrent insert; the unique constraint still
	// surfaces as a validation failure
	fs := &fakeReviewStore{
		product:   &models.Product{ID: 1, Slug: "desk-lamp"},
		createErr: &pq.Error{Code: "23505"},
	}
	s := NewReviewService(fs, nil)

	_, err := s.CreateReview(context.Background(), &auth.Identity{UserID: 3}, "desk-lamp", &CreateReviewRequest{
		Rating: 4,
		Title:  "again",
	})
	require.Error(t, err)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "product")
}

func TestUpdateReviewResetsApproval(t *testing.T) {
	fs := &fakeReviewStore{
		byID: map[int64]*models.ProductReview{
			5: {ID: 5, ProductID: 1, UserID: 3, Rating: 5, Title: "Great", IsApproved: true},
		},
	}
	s := NewReviewService(fs, nil)

	title := "Changed my mind"
	review, err := s.UpdateReview(context.Background(), &auth.Identity{UserID: 3}, 5, &UpdateReviewRequest{
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, "Changed my mind", review.Title)
	assert.False(t, review.IsApproved)
	require.NotNil(t, fs.updated)
	assert.Equal(t, int64(5), fs.updated.ID)
}

func TestUpdateReviewForbiddenForOthers(t *testing.T) {
	fs := &fakeReviewStore{
		byID: map[int64]*models.ProductReview{
			5: {ID: 5, ProductID: 1, UserID: 3, IsApproved: true},
		},
	}
	s := NewReviewService(fs, nil)

	title := "vandalism"
	_, err := s.UpdateReview(context.Background(), &auth.Identity{UserID: 9}, 5, &UpdateReviewRequest{
		Title: &title,
	})
	assert.True(t, IsForbidden(err))
}

func TestApproveReviewRequiresStaff(t *testing.T) {
	s := NewReviewService(nil, nil)

	err := s.ApproveReview(context.Background(), &auth.Identity{UserID: 1, IsVendor: true}, 9)
	assert.True(t, IsForbidden(err))
}
