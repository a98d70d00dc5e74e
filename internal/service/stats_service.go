package service

import (
	"context"
	"fmt"
	"math"

	"catalog-service/internal/auth"
	"catalog-service/internal/store"
	"catalog-service/internal/util"

	"go.uber.org/zap"
)

// StatsStore is the storage surface the statistics service depends on
type StatsStore interface {
	GetProductStatistics(ctx context.Context, vendorID *int64) (*store.ProductStatistics, error)
}

// StatsService reports product aggregates. Access policy: staff callers get
// store-wide numbers; vendor callers get numbers scoped to their own
// products; anyone else is denied.
type StatsService struct {
	store  StatsStore
	logger *zap.Logger
}

// NewStatsService creates a new statistics service
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// GetStatistics computes the aggregate report for the caller's scope
func (s *StatsService) GetStatistics(ctx context.Context, identity *auth.Identity) (*store.ProductStatistics, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.GetStatistics")
	defer span.End()

	var vendorScope *int64
	switch {
	case identity.IsStaff:
		// store-wide
	case identity.IsVendor:
		vendorID := identity.UserID
		vendorScope = &vendorID
	default:
		return nil, &ForbiddenError{Reason: "staff or vendor capability required to view statistics"}
	}

	stats, err := s.store.GetProductStatistics(ctx, vendorScope)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	stats.AverageRating = math.Round(stats.AverageRating*100) / 100

	s.logger.Debug("Statistics computed",
		zap.Bool("store_wide", vendorScope == nil),
		zap.Int("total_products", stats.TotalProducts))

	return stats, nil
}
