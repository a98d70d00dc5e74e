package store

import (
	"context"
	"database/sql"

	"catalog-service/internal/models"
)

// CreateReview inserts a new review, unapproved until moderated
func (s *Store) CreateReview(ctx context.Context, review *models.ProductReview) error {
	query := `
		INSERT INTO product_reviews (product_id, user_id, rating, title, comment, is_approved)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, is_approved, created_at, updated_at`

	return s.db.GetContext(ctx, review, query,
		review.ProductID, review.UserID, review.Rating, review.Title, review.Comment)
}

// GetReviewByID retrieves a review by ID
func (s *Store) GetReviewByID(ctx context.Context, id int64) (*models.ProductReview, error) {
	var review models.ProductReview
	err := s.db.GetContext(ctx, &review, "SELECT * FROM product_reviews WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewByProductAndUser retrieves the single review a user may hold on
// a product
func (s *Store) GetReviewByProductAndUser(ctx context.Context, productID, userID int64) (*models.ProductReview, error) {
	var review models.ProductReview
	err := s.db.GetContext(ctx, &review,
		"SELECT * FROM product_reviews WHERE product_id = $1 AND user_id = $2",
		productID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetApprovedReviewsByProductID retrieves the publicly visible reviews of a
// product, newest first
func (s *Store) GetApprovedReviewsByProductID(ctx context.Context, productID int64) ([]models.ProductReview, error) {
	var reviews []models.ProductReview
	err := s.db.SelectContext(ctx, &reviews,
		`SELECT * FROM product_reviews
		 WHERE product_id = $1 AND is_approved = TRUE
		 ORDER BY created_at DESC`,
		productID)
	return reviews, err
}

// UpdateReview stores new review content and drops the approval flag so the
// review goes back through moderation
func (s *Store) UpdateReview(ctx context.Context, review *models.ProductReview) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE product_reviews
		 SET rating = $1, title = $2, comment = $3, is_approved = FALSE, updated_at = NOW()
		 WHERE id = $4`,
		review.Rating, review.Title, review.Comment, review.ID)
	return err
}

// ApproveReview flips the moderation flag
func (s *Store) ApproveReview(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE product_reviews SET is_approved = TRUE, updated_at = NOW() WHERE id = $1", id)
	return err
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM product_reviews WHERE id = $1", id)
	return err
}
