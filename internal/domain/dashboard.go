package domain

import "github.com/shopspring/decimal"

// WeeklyComparison compares two Friday-to-Thursday weeks of sales.
type WeeklyComparison struct {
	ThisWeekStart string  `json:"thisWeekStart"`
	ThisWeekEnd   string  `json:"thisWeekEnd"`
	LastWeekStart string  `json:"lastWeekStart"`
	LastWeekEnd   string  `json:"lastWeekEnd"`
	ThisWeekSales int     `json:"thisWeekSales"`
	LastWeekSales int     `json:"lastWeekSales"`
	GrowthRate    float64 `json:"growthRate"`
}

// RiskCounts tallies forecast statuses.
type RiskCounts struct {
	Danger  int `json:"danger"`
	Warning int `json:"warning"`
	Safe    int `json:"safe"`
}

// DashboardStats aggregates the headline numbers of the dashboard
type DashboardStats struct {
	LatestDate            string           `json:"latestDate"`
	LatestDaySales        int              `json:"latestDaySales"`
	TotalSales            int              `json:"totalSales"`
	ProductCount          int              `json:"productCount"`
	SkuCount              int              `json:"skuCount"`
	TotalCoupangInventory int              `json:"totalCoupangInventory"`
	TotalHQInventory      int              `json:"totalHqInventory"`
	InventoryValue        decimal.Decimal  `json:"inventoryValue"`
	Risks                 RiskCounts       `json:"risks"`
	Weekly                WeeklyComparison `json:"weekly"`
}
