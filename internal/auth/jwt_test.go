package auth

import (
	"testing"
	"time"

	"catalog-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Email:    "vendor@example.com",
		IsVendor: true,
	}
}

func TestIssueAndParsePair(t *testing.T) {
	m := NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := m.IssuePair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	identity, err := m.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "vendor@example.com", identity.Email)
	assert.True(t, identity.IsVendor)
	assert.False(t, identity.IsStaff)

	claims, err := m.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenJTIsDiffer(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	first, err := m.IssuePair(testUser())
	require.NoError(t, err)
	second, err := m.IssuePair(testUser())
	require.NoError(t, err)

	c1, err := m.ParseRefresh(first.Refresh)
	require.NoError(t, err)
	c2, err := m.ParseRefresh(second.Refresh)
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestParseRejectsWrongUse(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	pair, err := m.IssuePair(testUser())
	require.NoError(t, err)

	// a refresh token must not authenticate a request
	_, err = m.ParseAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongUse)

	// and an access token must not mint new pairs
	_, err = m.ParseRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrWrongUse)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	other := NewManager("other-secret", time.Minute, time.Hour)

	pair, err := m.IssuePair(testUser())
	require.NoError(t, err)

	_, err = other.ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, -time.Minute)

	pair, err := m.IssuePair(testUser())
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	_, err := m.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentityCapabilities(t *testing.T) {
	vendor := &Identity{UserID: 1, IsVendor: true}
	staff := &Identity{UserID: 2, IsStaff: true}
	other := &Identity{UserID: 3}

	assert.True(t, vendor.CanManageProduct(1))
	assert.False(t, vendor.CanManageProduct(99))
	assert.True(t, staff.CanManageProduct(99))

	assert.True(t, other.CanManageReview(3))
	assert.False(t, other.CanManageReview(1))
	assert.True(t, staff.CanManageReview(1))
}
