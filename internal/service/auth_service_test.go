package service

import (
	"context"
	"testing"
	"time"

	"catalog-service/internal/auth"
	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountStore struct {
	AccountStore
	byEmail map[string]*models.User
	byID    map[int64]*models.User
	created *models.User
	vendor  map[int64]bool
}

func (f *fakeAccountStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeAccountStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeAccountStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = 1
	f.created = user
	return nil
}

func (f *fakeAccountStore) SetUserVendorStatus(ctx context.Context, id int64, isVendor bool) error {
	if f.vendor == nil {
		f.vendor = map[int64]bool{}
	}
	f.vendor[id] = isVendor
	return nil
}

func TestRegisterNeverGrantsVendor(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Minute, time.Hour)
	fs := &fakeAccountStore{byEmail: map[string]*models.User{}}
	s := NewAuthService(fs, nil, tokens)

	resp, err := s.Register(context.Background(), &RegisterRequest{
		Email:     "new@example.com",
		Username:  "newuser",
		Password:  "password123",
		Password2: "password123",
	})
	require.NoError(t, err)

	// neither the stored row nor the issued token carries the capability
	assert.False(t, fs.created.IsVendor)
	assert.False(t, fs.created.IsStaff)
	assert.False(t, resp.User.IsVendor)

	identity, err := tokens.ParseAccess(resp.Tokens.Access)
	require.NoError(t, err)
	assert.False(t, identity.IsVendor)
	assert.False(t, identity.IsStaff)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	s := NewAuthService(&fakeAccountStore{}, nil, nil)

	_, err := s.Register(context.Background(), &RegisterRequest{
		Email:     "new@example.com",
		Username:  "newuser",
		Password:  "password123",
		Password2: "password124",
	})
	require.Error(t, err)
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "password")
}

func TestSetVendorStatus(t *testing.T) {
	fs := &fakeAccountStore{byID: map[int64]*models.User{7: {ID: 7}}}
	s := NewAuthService(fs, nil, nil)

	// non-staff callers are denied
	_, err := s.SetVendorStatus(context.Background(), &auth.Identity{UserID: 1, IsVendor: true}, 7, true)
	assert.True(t, IsForbidden(err))

	user, err := s.SetVendorStatus(context.Background(), &auth.Identity{UserID: 2, IsStaff: true}, 7, true)
	require.NoError(t, err)
	assert.True(t, user.IsVendor)
	assert.True(t, fs.vendor[7])

	// unknown user is a lookup failure
	_, err = s.SetVendorStatus(context.Background(), &auth.Identity{UserID: 2, IsStaff: true}, 99, true)
	assert.True(t, IsNotFound(err))
}
