package analytics

import (
	"sort"

	"github.com/andresuchdata/stockpilot/internal/domain"
)

const (
	// ForecastDays is the horizon of the depletion forecast.
	ForecastDays = 7
	// trailingWindow is how many distinct sale dates feed the trailing average.
	trailingWindow = 7
	// warningCoverDays flags stock that would last less than two weeks.
	warningCoverDays = 14
)

// RiskCalculator forecasts 7-day inventory balance with a fixed weighted
// average of trailing and most recent daily sales.
type RiskCalculator struct {
	window []string // last distinct sale dates of the whole dataset
	latest string
}

// NewRiskCalculator builds a calculator from the dataset's distinct dates
// (ascending).
func NewRiskCalculator(dates []string) *RiskCalculator {
	window := dates
	if len(window) > trailingWindow {
		window = window[len(window)-trailingWindow:]
	}
	latest := ""
	if len(dates) > 0 {
		latest = dates[len(dates)-1]
	}
	return &RiskCalculator{window: window, latest: latest}
}

// Forecast is the demand estimate for one daily sales series.
type Forecast struct {
	Avg7Days             float64
	PrevDaySales         int
	WeightedDailyAvg     float64
	ExpectedDemand7Days  float64
	ExpectedBalance7Days float64
	Status               domain.RiskStatus
}

// Calculate computes the forecast for a daily series and its supply.
func (rc *RiskCalculator) Calculate(daily map[string]int, currentInventory, inboundQty int) Forecast {
	f := Forecast{}

	// 1. Previous day = sales on the latest date of the whole dataset
	f.PrevDaySales = daily[rc.latest]

	// 2. Trailing average over the last 7 distinct dates, always divided by 7
	sum := 0
	for _, d := range rc.window {
		sum += daily[d]
	}
	f.Avg7Days = float64(sum) / trailingWindow

	// 3. Weighted daily average blends trailing and latest demand equally
	f.WeightedDailyAvg = (f.Avg7Days + float64(f.PrevDaySales)) / 2

	// 4. Expected demand and balance over the horizon
	f.ExpectedDemand7Days = f.WeightedDailyAvg * ForecastDays
	f.ExpectedBalance7Days = float64(currentInventory+inboundQty) - f.ExpectedDemand7Days

	f.Status = ClassifyRisk(f.ExpectedBalance7Days, f.WeightedDailyAvg)
	return f
}

// ClassifyRisk maps a projected balance to a status.
func ClassifyRisk(balance, weightedDailyAvg float64) domain.RiskStatus {
	switch {
	case balance < 0:
		return domain.RiskDanger
	case balance < weightedDailyAvg*warningCoverDays:
		return domain.RiskWarning
	}
	return domain.RiskSafe
}

// InboundByName sums inbound quantities per product name. Inbound is
// matched by exact name, so products sharing a display name share inbound.
func InboundByName(inbound []domain.InboundRecord) map[string]int {
	out := make(map[string]int)
	for _, rec := range inbound {
		out[rec.ProductName] += rec.InboundQty
	}
	return out
}

// Risks forecasts every group and its items, most urgent first.
func (rc *RiskCalculator) Risks(groups []domain.ProductGroup, inbound []domain.InboundRecord) []domain.InventoryRisk {
	inboundByName := InboundByName(inbound)

	risks := make([]domain.InventoryRisk, 0, len(groups))
	for _, g := range groups {
		inboundQty := inboundByName[g.GroupName]
		f := rc.Calculate(g.DailySalesMap, g.TotalCoupangInventory, inboundQty)

		items := make([]domain.RiskItem, 0, len(g.Items))
		for _, s := range g.Items {
			// inbound has no barcode-level allocation
			fi := rc.Calculate(s.DailySalesMap, s.CoupangInventory, 0)
			items = append(items, domain.RiskItem{
				ProductID:            s.ProductID,
				Barcode:              s.Barcode,
				SkuID:                s.SkuID,
				CurrentInventory:     s.CoupangInventory,
				InboundQty:           0,
				Avg7Days:             fi.Avg7Days,
				PrevDaySales:         fi.PrevDaySales,
				WeightedDailyAvg:     fi.WeightedDailyAvg,
				ExpectedDemand7Days:  fi.ExpectedDemand7Days,
				ExpectedBalance7Days: fi.ExpectedBalance7Days,
				Status:               fi.Status,
			})
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ExpectedBalance7Days < items[j].ExpectedBalance7Days
		})

		risks = append(risks, domain.InventoryRisk{
			ProductName:          g.GroupName,
			ImageURL:             g.ImageURL,
			CurrentInventory:     g.TotalCoupangInventory,
			InboundQty:           inboundQty,
			Avg7Days:             f.Avg7Days,
			PrevDaySales:         f.PrevDaySales,
			WeightedDailyAvg:     f.WeightedDailyAvg,
			ExpectedDemand7Days:  f.ExpectedDemand7Days,
			ExpectedBalance7Days: f.ExpectedBalance7Days,
			Status:               f.Status,
			Items:                items,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].ExpectedBalance7Days < risks[j].ExpectedBalance7Days
	})
	return risks
}
