// internal/domain/models.go
package domain

import "github.com/shopspring/decimal"

// SalesRecord is one product's marketplace sales and stock on a single day.
type SalesRecord struct {
	ProductID    string `json:"productId"`
	SkuID        string `json:"skuId"`
	ProductName  string `json:"productName"`
	Barcode      string `json:"barcode"`
	Date         string `json:"date"` // YYYY-MM-DD
	SalesQty     int    `json:"salesQty"`
	InventoryQty int    `json:"inventoryQty"` // marketplace-side stock on Date
}

// Key is the merge identity of a sales record.
func (r SalesRecord) Key() string {
	return r.ProductID + "_" + r.Date
}

// ProductMaster is a row of the product master sheet.
type ProductMaster struct {
	Barcode     string           `json:"barcode"`
	SkuName     string           `json:"skuName"`
	SkuID       string           `json:"skuId"`
	Category    string           `json:"category,omitempty"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	HQInventory *int             `json:"hqInventory,omitempty"`

	// Columns lists the fields the source sheet had a column for. Zero
	// means unknown, e.g. a record loaded back from the store.
	Columns MasterField `json:"-"`
}

// MasterField is a bit set of ProductMaster fields.
type MasterField uint8

const (
	MasterSkuName MasterField = 1 << iota
	MasterSkuID
	MasterCategory
	MasterCostPrice
	MasterImageURL
	MasterHQInventory
)

func (f MasterField) Has(field MasterField) bool {
	return f&field != 0
}

// InboundRecord is a scheduled replenishment for a product.
type InboundRecord struct {
	Barcode     string `json:"barcode"`
	ProductName string `json:"productName"`
	InboundQty  int    `json:"inboundQty"`
}

// ProductSummary rolls up every sales record of a single barcode.
type ProductSummary struct {
	ProductID        string           `json:"productId"`
	SkuID            string           `json:"skuId"`
	ProductName      string           `json:"productName"`
	Barcode          string           `json:"barcode"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	CostPrice        *decimal.Decimal `json:"costPrice,omitempty"`
	CumulativeSales  int              `json:"cumulativeSales"`
	CoupangInventory int              `json:"coupangInventory"`
	HQInventory      int              `json:"hqInventory"`
	DailySalesMap    map[string]int   `json:"dailySalesMap"`
	Orphan           bool             `json:"orphan,omitempty"` // no master row matched
}

// ProductGroup folds every ProductSummary sharing a product name.
type ProductGroup struct {
	GroupName             string           `json:"groupName"`
	ImageURL              string           `json:"imageUrl,omitempty"`
	TotalSales            int              `json:"totalSales"`
	TotalCoupangInventory int              `json:"totalCoupangInventory"`
	TotalHQInventory      int              `json:"totalHqInventory"`
	DailySalesMap         map[string]int   `json:"dailySalesMap"`
	Items                 []ProductSummary `json:"items"`
}

// RiskItem is the per-barcode breakdown of an InventoryRisk.
type RiskItem struct {
	ProductID            string     `json:"productId"`
	Barcode              string     `json:"barcode"`
	SkuID                string     `json:"skuId"`
	CurrentInventory     int        `json:"currentInventory"`
	InboundQty           int        `json:"inboundQty"`
	Avg7Days             float64    `json:"avg7Days"`
	PrevDaySales         int        `json:"prevDaySales"`
	WeightedDailyAvg     float64    `json:"weightedDailyAvg"`
	ExpectedDemand7Days  float64    `json:"expectedDemand7Days"`
	ExpectedBalance7Days float64    `json:"expectedBalance7Days"`
	Status               RiskStatus `json:"status"`
}

// InventoryRisk is the 7-day depletion forecast for a product group.
type InventoryRisk struct {
	ProductName          string     `json:"productName"`
	ImageURL             string     `json:"imageUrl,omitempty"`
	CurrentInventory     int        `json:"currentInventory"`
	InboundQty           int        `json:"inboundQty"`
	Avg7Days             float64    `json:"avg7Days"`
	PrevDaySales         int        `json:"prevDaySales"`
	WeightedDailyAvg     float64    `json:"weightedDailyAvg"`
	ExpectedDemand7Days  float64    `json:"expectedDemand7Days"`
	ExpectedBalance7Days float64    `json:"expectedBalance7Days"`
	Status               RiskStatus `json:"status"`
	Items                []RiskItem `json:"items"`
}

// DailyTrend is the all-product total for one date.
type DailyTrend struct {
	Date      string `json:"date"`
	Sales     int    `json:"sales"`
	Inventory int    `json:"inventory"`
}

// UploadResult reports what an ingest+merge pass did.
type UploadResult struct {
	BatchID    string      `json:"batchId"`
	Kind       DatasetKind `json:"kind"`
	Ingested   int         `json:"ingested"`
	Persisted  int         `json:"persisted"`
	Errors     []string    `json:"errors"`
	ArchiveKey string      `json:"archiveKey,omitempty"`
}
