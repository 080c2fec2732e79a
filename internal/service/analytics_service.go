// internal/service/analytics_service.go
package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockpilot/internal/analytics"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/repository"
)

// AnalyticsService projects the persisted records on every call.
type AnalyticsService struct {
	repo *repository.RecordRepository
}

func NewAnalyticsService(repo *repository.RecordRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Snapshot loads all three record sets and aggregates them.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*analytics.Snapshot, error) {
	sales, err := s.repo.LoadSales(ctx)
	if err != nil {
		return nil, err
	}
	masters, err := s.repo.LoadMaster(ctx)
	if err != nil {
		return nil, err
	}
	inbound, err := s.repo.LoadInbound(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.NewSnapshot(sales, masters, inbound), nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return snap.Dashboard(), nil
}

// Groups returns product groups ordered by sortKey.
func (s *AnalyticsService) Groups(ctx context.Context, sortKey string, desc bool) ([]domain.ProductGroup, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := snap.Groups
	analytics.SortGroups(groups, sortKey, desc)
	return groups, nil
}

func (s *AnalyticsService) Risks(ctx context.Context) ([]domain.InventoryRisk, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Risks(), nil
}

func (s *AnalyticsService) Trends(ctx context.Context) ([]domain.DailyTrend, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Trends(), nil
}

// Records returns the raw persisted set of kind.
func (s *AnalyticsService) Records(ctx context.Context, kind domain.DatasetKind) (any, error) {
	switch kind {
	case domain.KindSales:
		return s.repo.LoadSales(ctx)
	case domain.KindMaster:
		return s.repo.LoadMaster(ctx)
	case domain.KindInbound:
		return s.repo.LoadInbound(ctx)
	}
	return nil, fmt.Errorf("unknown dataset kind %q", kind)
}
