package analytics

import (
	"sort"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/shopspring/decimal"
)

// Snapshot holds one analytics pass over the persisted records. Every
// field is derived on construction; nothing is cached between passes.
type Snapshot struct {
	Sales     []domain.SalesRecord
	Inbound   []domain.InboundRecord
	Dates     []string
	Latest    string
	Summaries []domain.ProductSummary
	Groups    []domain.ProductGroup
}

// NewSnapshot aggregates sales against the master.
func NewSnapshot(sales []domain.SalesRecord, masters []domain.ProductMaster, inbound []domain.InboundRecord) *Snapshot {
	summaries := BuildSummaries(sales, masters)
	dates := DistinctDates(sales)
	latest := ""
	if len(dates) > 0 {
		latest = dates[len(dates)-1]
	}
	return &Snapshot{
		Sales:     sales,
		Inbound:   inbound,
		Dates:     dates,
		Latest:    latest,
		Summaries: summaries,
		Groups:    GroupByName(summaries),
	}
}

// Risks returns the inventory risk list, most urgent first.
func (s *Snapshot) Risks() []domain.InventoryRisk {
	return NewRiskCalculator(s.Dates).Risks(s.Groups, s.Inbound)
}

// Trends returns per-date totals, date ascending.
func (s *Snapshot) Trends() []domain.DailyTrend {
	index := make(map[string]int, len(s.Dates))
	trends := make([]domain.DailyTrend, 0, len(s.Dates))
	for _, rec := range s.Sales {
		i, ok := index[rec.Date]
		if !ok {
			i = len(trends)
			index[rec.Date] = i
			trends = append(trends, domain.DailyTrend{Date: rec.Date})
		}
		trends[i].Sales += rec.SalesQty
		trends[i].Inventory += rec.InventoryQty
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

// Dashboard computes the headline stats.
func (s *Snapshot) Dashboard() domain.DashboardStats {
	stats := domain.DashboardStats{
		LatestDate:     s.Latest,
		ProductCount:   len(s.Groups),
		SkuCount:       len(s.Summaries),
		InventoryValue: decimal.Zero,
		Weekly:         CompareWeeks(s.Sales, s.Latest),
	}

	for _, rec := range s.Sales {
		stats.TotalSales += rec.SalesQty
		if rec.Date == s.Latest {
			stats.LatestDaySales += rec.SalesQty
		}
	}

	for _, sum := range s.Summaries {
		stats.TotalCoupangInventory += sum.CoupangInventory
		stats.TotalHQInventory += sum.HQInventory
		if sum.CostPrice != nil {
			units := decimal.NewFromInt(int64(sum.CoupangInventory + sum.HQInventory))
			stats.InventoryValue = stats.InventoryValue.Add(sum.CostPrice.Mul(units))
		}
	}

	for _, r := range s.Risks() {
		switch r.Status {
		case domain.RiskDanger:
			stats.Risks.Danger++
		case domain.RiskWarning:
			stats.Risks.Warning++
		default:
			stats.Risks.Safe++
		}
	}

	return stats
}
