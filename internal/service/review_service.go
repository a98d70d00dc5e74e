package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"catalog-service/internal/auth"
	"catalog-service/internal/broker"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewStore is the storage surface the review service depends on
type ReviewStore interface {
	GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetApprovedReviewsByProductID(ctx context.Context, productID int64) ([]models.ProductReview, error)
	GetReviewByProductAndUser(ctx context.Context, productID, userID int64) (*models.ProductReview, error)
	CreateReview(ctx context.Context, review *models.ProductReview) error
	GetReviewByID(ctx context.Context, id int64) (*models.ProductReview, error)
	UpdateReview(ctx context.Context, review *models.ProductReview) error
	ApproveReview(ctx context.Context, id int64) error
	DeleteReview(ctx context.Context, id int64) error
}

// ReviewService handles product reviews and their moderation state
type ReviewService struct {
	store          ReviewStore
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore, eventPublisher *broker.EventPublisher) *ReviewService {
	return &ReviewService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ListReviews returns the approved reviews of an active product
func (s *ReviewService) ListReviews(ctx context.Context, productSlug string) ([]models.ProductReview, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.ListReviews")
	defer span.End()

	product, err := s.store.GetActiveProductBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, &NotFoundError{Resource: "product", Key: productSlug}
	}

	reviews, err := s.store.GetApprovedReviewsByProductID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if reviews == nil {
		reviews = []models.ProductReview{}
	}
	return reviews, nil
}

// CreateReviewRequest represents a review submission
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// CreateReview submits a review for moderation. A user may hold exactly one
// review per product; duplicates are a validation failure.
func (s *ReviewService) CreateReview(ctx context.Context, identity *auth.Identity, productSlug string, req *CreateReviewRequest) (*models.ProductReview, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.CreateReview")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, NewValidationError("rating", "rating must be between 1 and 5")
	}

	product, err := s.store.GetActiveProductBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, &NotFoundError{Resource: "product", Key: productSlug}
	}

	existing, err := s.store.GetReviewByProductAndUser(ctx, product.ID, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("product", "you have already reviewed this product")
	}

	review := &models.ProductReview{
		ProductID: product.ID,
		UserID:    identity.UserID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, NewValidationError("product", "you have already reviewed this product")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	util.ReviewsSubmittedTotal.Inc()
	s.logger.Info("Review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("product_id", product.ID),
		zap.Int("rating", review.Rating))

	s.publishReviewSubmitted(ctx, review)

	return review, nil
}

// GetReview returns a review by ID. Unapproved reviews are visible only to
// their author and staff.
func (s *ReviewService) GetReview(ctx context.Context, identity *auth.Identity, id int64) (*models.ProductReview, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.GetReview")
	defer span.End()

	review, err := s.store.GetReviewByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return nil, &NotFoundError{Resource: "review", Key: strconv.FormatInt(id, 10)}
	}

	if !review.IsApproved && !identity.CanManageReview(review.UserID) {
		return nil, &NotFoundError{Resource: "review", Key: strconv.FormatInt(id, 10)}
	}

	return review, nil
}

// UpdateReviewRequest represents an edit to an existing review
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

// UpdateReview edits a review. Any edit drops the approval flag so the
// review goes back through moderation.
func (s *ReviewService) UpdateReview(ctx context.Context, identity *auth.Identity, id int64, req *UpdateReviewRequest) (*models.ProductReview, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.UpdateReview")
	defer span.End()

	review, err := s.store.GetReviewByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return nil, &NotFoundError{Resource: "review", Key: strconv.FormatInt(id, 10)}
	}

	if !identity.CanManageReview(review.UserID) {
		return nil, &ForbiddenError{Reason: "only the author or staff may edit this review"}
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, NewValidationError("rating", "rating must be between 1 and 5")
		}
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = *req.Title
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	review.IsApproved = false

	s.logger.Info("Review updated, approval reset", zap.Int64("review_id", review.ID))
	s.publishReviewSubmitted(ctx, review)

	return review, nil
}

// ApproveReview makes a review publicly visible; staff only
func (s *ReviewService) ApproveReview(ctx context.Context, identity *auth.Identity, id int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.ApproveReview")
	defer span.End()

	if !identity.IsStaff {
		return &ForbiddenError{Reason: "staff capability required to moderate reviews"}
	}

	review, err := s.store.GetReviewByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return &NotFoundError{Resource: "review", Key: strconv.FormatInt(id, 10)}
	}

	if err := s.store.ApproveReview(ctx, id); err != nil {
		return fmt.Errorf("failed to approve review: %w", err)
	}

	s.logger.Info("Review approved", zap.Int64("review_id", id))
	return nil
}

// DeleteReview removes a review; author or staff
func (s *ReviewService) DeleteReview(ctx context.Context, identity *auth.Identity, id int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	review, err := s.store.GetReviewByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review == nil {
		return &NotFoundError{Resource: "review", Key: strconv.FormatInt(id, 10)}
	}

	if !identity.CanManageReview(review.UserID) {
		return &ForbiddenError{Reason: "only the author or staff may delete this review"}
	}

	if err := s.store.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.logger.Info("Review deleted", zap.Int64("review_id", id))
	return nil
}

func (s *ReviewService) publishReviewSubmitted(ctx context.Context, review *models.ProductReview) {
	if s.eventPublisher == nil {
		return
	}

	event := &models.ReviewSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReviewSubmitted,
			Timestamp: time.Now(),
		},
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
	}

	if err := s.eventPublisher.PublishReviewSubmitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish review event",
			zap.Int64("review_id", review.ID),
			zap.Error(err))
	}
}
