package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"
	"catalog-service/internal/redisclient"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the storage surface the auth service depends on
type AccountStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserProfile(ctx context.Context, user *models.User) error
	SetUserVendorStatus(ctx context.Context, id int64, isVendor bool) error
}

// AuthService handles account registration, login and token lifecycle
type AuthService struct {
	store  AccountStore
	redis  *redisclient.Client
	tokens *auth.Manager
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store AccountStore, redis *redisclient.Client, tokens *auth.Manager) *AuthService {
	return &AuthService{
		store:  store,
		redis:  redis,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// RegisterRequest represents a registration attempt. Capability flags are
// never taken from the request; vendor status is granted by staff after the
// fact.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Password2 string `json:"password2" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResponse carries the user and a fresh token pair
type AuthResponse struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates an account and issues a token pair
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if req.Password != req.Password2 {
		return nil, NewValidationError("password", "password fields don't match")
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("email", "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, NewValidationError("email", "an account with this email or username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, NewValidationError("email", "unable to log in with provided credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewValidationError("email", "unable to log in with provided credentials")
	}

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

// Refresh rotates a token pair. The presented refresh token is blacklisted
// so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Refresh")
	defer span.End()

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, &ForbiddenError{Reason: "invalid refresh token"}
	}

	blacklisted, err := s.redis.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, &ForbiddenError{Reason: "refresh token has been revoked"}
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &ForbiddenError{Reason: "account no longer exists"}
	}

	if err := s.blacklist(ctx, claims); err != nil {
		return nil, err
	}

	return s.tokens.IssuePair(user)
}

// Logout blacklists the presented refresh token for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.Logout")
	defer span.End()

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return NewValidationError("refresh", "invalid refresh token")
	}

	return s.blacklist(ctx, claims)
}

func (s *AuthService) blacklist(ctx context.Context, claims *auth.Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// SetVendorStatus grants or revokes the vendor capability of a user; staff
// only
func (s *AuthService) SetVendorStatus(ctx context.Context, identity *auth.Identity, userID int64, isVendor bool) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.SetVendorStatus")
	defer span.End()

	if !identity.IsStaff {
		return nil, &ForbiddenError{Reason: "staff capability required to manage vendor status"}
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user", Key: strconv.FormatInt(userID, 10)}
	}

	if err := s.store.SetUserVendorStatus(ctx, userID, isVendor); err != nil {
		return nil, fmt.Errorf("failed to update vendor status: %w", err)
	}
	user.IsVendor = isVendor

	s.logger.Info("Vendor status changed",
		zap.Int64("user_id", userID),
		zap.Bool("is_vendor", isVendor))

	return user, nil
}

// GetProfile returns the caller's account
func (s *AuthService) GetProfile(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user", Key: strconv.FormatInt(identity.UserID, 10)}
	}
	return user, nil
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UpdateProfile updates the caller's mutable profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, identity *auth.Identity, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, NewValidationError("username", "this username is already taken")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}
