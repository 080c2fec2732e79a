package ingest

import (
	"strings"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Ingestor turns decoded sheet grids into typed records. Field-level
// problems are coerced silently; only structural failures (missing
// required columns) are reported, as advisory strings.
type Ingestor struct {
	today func() time.Time
}

// NewIngestor creates an ingestor whose date fallback is "now" in loc.
func NewIngestor(loc *time.Location) *Ingestor {
	if loc == nil {
		loc = time.Local
	}
	return &Ingestor{today: func() time.Time { return time.Now().In(loc) }}
}

// WithClock replaces the fallback date source, mostly for tests.
func (in *Ingestor) WithClock(today func() time.Time) *Ingestor {
	in.today = today
	return in
}

// Sales parses a marketplace sales export.
func (in *Ingestor) Sales(grid Grid) ([]domain.SalesRecord, []string) {
	cols, err := DetectColumns(grid, domain.KindSales)
	if err != nil {
		return nil, []string{err.Error()}
	}

	today := in.today()
	nameIdx := cols.col(RoleProductName)
	records := make([]domain.SalesRecord, 0, len(grid)-cols.HeaderRow)
	for _, row := range dataRows(grid, cols) {
		if skipRow(row, nameIdx) {
			continue
		}

		rec := domain.SalesRecord{
			ProductID:    row.at(cols.col(RoleProductID)).String(),
			SkuID:        row.at(cols.col(RoleSkuID)).String(),
			ProductName:  row.at(nameIdx).String(),
			Barcode:      row.at(cols.col(RoleBarcode)).String(),
			Date:         NormalizeDate(row.at(cols.col(RoleDate)), today),
			SalesQty:     row.at(cols.col(RoleSalesQty)).Qty(),
			InventoryQty: row.at(cols.col(RoleInventoryQty)).Qty(),
		}
		if rec.ProductID == "" {
			rec.ProductID = rec.Barcode
		}
		if rec.ProductID == "" {
			rec.ProductID = rec.ProductName
		}
		records = append(records, rec)
	}

	log.Debug().
		Str("kind", string(domain.KindSales)).
		Int("header_row", cols.HeaderRow).
		Int("records", len(records)).
		Msg("ingest: parsed sheet")

	return records, nil
}

// Master parses a product master sheet. Rows without a barcode are dropped.
func (in *Ingestor) Master(grid Grid) ([]domain.ProductMaster, []string) {
	cols, err := DetectColumns(grid, domain.KindMaster)
	if err != nil {
		return nil, []string{err.Error()}
	}

	nameIdx := cols.col(RoleSkuName)
	present := masterColumns(cols)
	records := make([]domain.ProductMaster, 0, len(grid))
	for _, row := range dataRows(grid, cols) {
		if skipRow(row, nameIdx) {
			continue
		}
		barcode := row.at(cols.col(RoleBarcode)).String()
		if barcode == "" {
			continue
		}

		rec := domain.ProductMaster{
			Barcode:  barcode,
			SkuName:  row.at(nameIdx).String(),
			SkuID:    row.at(cols.col(RoleSkuID)).String(),
			Category: row.at(cols.col(RoleCategory)).String(),
			ImageURL: row.at(cols.col(RoleImageURL)).String(),
			Columns:  present,
		}
		if idx, ok := cols.Index(RoleCostPrice); ok {
			if cell := row.at(idx); !cell.IsEmpty() {
				cost := decimal.NewFromFloat(cell.Float())
				rec.CostPrice = &cost
			}
		}
		if idx, ok := cols.Index(RoleHQInventory); ok {
			if cell := row.at(idx); !cell.IsEmpty() {
				hq := cell.Qty()
				rec.HQInventory = &hq
			}
		}
		records = append(records, rec)
	}

	log.Debug().
		Str("kind", string(domain.KindMaster)).
		Int("records", len(records)).
		Msg("ingest: parsed sheet")

	return records, nil
}

// Inbound parses a scheduled-inbound sheet. Rows with a non-positive
// quantity are dropped.
func (in *Ingestor) Inbound(grid Grid) ([]domain.InboundRecord, []string) {
	cols, err := DetectColumns(grid, domain.KindInbound)
	if err != nil {
		return nil, []string{err.Error()}
	}

	nameIdx := cols.col(RoleProductName)
	records := make([]domain.InboundRecord, 0, len(grid))
	for _, row := range dataRows(grid, cols) {
		if skipRow(row, nameIdx) {
			continue
		}
		qty := row.at(cols.col(RoleInboundQty)).Int()
		if qty <= 0 {
			continue
		}
		records = append(records, domain.InboundRecord{
			Barcode:     row.at(cols.col(RoleBarcode)).String(),
			ProductName: row.at(nameIdx).String(),
			InboundQty:  qty,
		})
	}

	log.Debug().
		Str("kind", string(domain.KindInbound)).
		Int("records", len(records)).
		Msg("ingest: parsed sheet")

	return records, nil
}

var masterFieldRoles = map[Role]domain.MasterField{
	RoleSkuName:     domain.MasterSkuName,
	RoleSkuID:       domain.MasterSkuID,
	RoleCategory:    domain.MasterCategory,
	RoleCostPrice:   domain.MasterCostPrice,
	RoleImageURL:    domain.MasterImageURL,
	RoleHQInventory: domain.MasterHQInventory,
}

func masterColumns(cols Columns) domain.MasterField {
	var f domain.MasterField
	for role, field := range masterFieldRoles {
		if cols.has(role) {
			f |= field
		}
	}
	return f
}

func dataRows(grid Grid, cols Columns) Grid {
	if cols.HeaderRow+1 >= len(grid) {
		return nil
	}
	return grid[cols.HeaderRow+1:]
}

// skipRow reports blank rows and total/subtotal rows, judged by the first
// cell or the resolved name cell.
func skipRow(row Row, nameIdx int) bool {
	if row.isEmpty() {
		return true
	}
	if isTotalRow(row.at(0).String()) {
		return true
	}
	if name := strings.TrimSpace(row.at(nameIdx).String()); name != "" && isTotalRow(name) {
		return true
	}
	return false
}
