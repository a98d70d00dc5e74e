package service

import (
	"context"
	"testing"

	"catalog-service/internal/auth"
	"catalog-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsStore struct {
	lastScope *int64
}

func (f *fakeStatsStore) GetProductStatistics(ctx context.Context, vendorID *int64) (*store.ProductStatistics, error) {
	f.lastScope = vendorID
	return &store.ProductStatistics{TotalProducts: 3, AverageRating: 4.666}, nil
}

func TestGetStatisticsDeniedWithoutCapability(t *testing.T) {
	s := NewStatsService(nil)

	// neither staff nor vendor gets denied before any storage access
	_, err := s.GetStatistics(context.Background(), &auth.Identity{UserID: 1})
	assert.True(t, IsForbidden(err))
}

func TestGetStatisticsScoping(t *testing.T) {
	fs := &fakeStatsStore{}
	s := NewStatsService(fs)

	// staff sees store-wide numbers
	stats, err := s.GetStatistics(context.Background(), &auth.Identity{UserID: 1, IsStaff: true})
	require.NoError(t, err)
	assert.Nil(t, fs.lastScope)
	assert.Equal(t, 4.67, stats.AverageRating)

	// a vendor is scoped to their own products
	_, err = s.GetStatistics(context.Background(), &auth.Identity{UserID: 7, IsVendor: true})
	require.NoError(t, err)
	require.NotNil(t, fs.lastScope)
	assert.Equal(t, int64(7), *fs.lastScope)
}
