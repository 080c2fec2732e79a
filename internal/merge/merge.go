// Package merge folds freshly ingested batches into the persisted record set.
//
// Sales merging is deliberately asymmetric:
//
//   - within one batch, rows sharing productId+date are SUMMED, because a
//     single export can split one day's sales over several rows;
//   - across batches, a key that already exists is REPLACED by the new
//     value, never added to, so re-uploading a corrected file is
//     idempotent.
package merge

import (
	"sort"
	"strings"

	"github.com/andresuchdata/stockpilot/internal/domain"
)

// Sales merges batch into existing and returns the result sorted by date.
func Sales(existing, batch []domain.SalesRecord) []domain.SalesRecord {
	aggregated := aggregateBatch(batch)

	byKey := make(map[string]int, len(existing)+len(aggregated))
	merged := make([]domain.SalesRecord, 0, len(existing)+len(aggregated))
	for _, rec := range existing {
		if i, ok := byKey[rec.Key()]; ok {
			merged[i] = rec
			continue
		}
		byKey[rec.Key()] = len(merged)
		merged = append(merged, rec)
	}
	for _, rec := range aggregated {
		if i, ok := byKey[rec.Key()]; ok {
			merged[i] = rec
			continue
		}
		byKey[rec.Key()] = len(merged)
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}

// aggregateBatch sums quantities of rows sharing a key, keeping the
// descriptive fields of the first row seen.
func aggregateBatch(batch []domain.SalesRecord) []domain.SalesRecord {
	index := make(map[string]int, len(batch))
	out := make([]domain.SalesRecord, 0, len(batch))
	for _, rec := range batch {
		if i, ok := index[rec.Key()]; ok {
			out[i].SalesQty += rec.SalesQty
			out[i].InventoryQty += rec.InventoryQty
			continue
		}
		index[rec.Key()] = len(out)
		out = append(out, rec)
	}
	return out
}

// Master merges master rows by trimmed barcode. A colliding row is
// overlaid field by field: fields the new row leaves empty keep their
// previous value.
func Master(existing, batch []domain.ProductMaster) []domain.ProductMaster {
	index := make(map[string]int, len(existing)+len(batch))
	merged := make([]domain.ProductMaster, 0, len(existing)+len(batch))
	for _, rec := range append(append([]domain.ProductMaster(nil), existing...), batch...) {
		key := strings.TrimSpace(rec.Barcode)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			merged[i] = overlayMaster(merged[i], rec)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}

// overlayMaster copies every field next's sheet had a column for, blank
// values included, so a corrected sheet can clear a stale field. When the
// columns are unknown only non-empty fields are copied.
func overlayMaster(base, next domain.ProductMaster) domain.ProductMaster {
	out := base
	out.Barcode = next.Barcode
	carries := func(field domain.MasterField, empty bool) bool {
		if next.Columns == 0 {
			return !empty
		}
		return next.Columns.Has(field)
	}

	if carries(domain.MasterSkuName, next.SkuName == "") {
		out.SkuName = next.SkuName
	}
	if carries(domain.MasterSkuID, next.SkuID == "") {
		out.SkuID = next.SkuID
	}
	if carries(domain.MasterCategory, next.Category == "") {
		out.Category = next.Category
	}
	if carries(domain.MasterCostPrice, next.CostPrice == nil) {
		out.CostPrice = next.CostPrice
	}
	if carries(domain.MasterImageURL, next.ImageURL == "") {
		out.ImageURL = next.ImageURL
	}
	if carries(domain.MasterHQInventory, next.HQInventory == nil) {
		out.HQInventory = next.HQInventory
	}
	out.Columns = base.Columns | next.Columns
	return out
}

// Inbound replaces the scheduled inbound set with the new batch.
func Inbound(_, batch []domain.InboundRecord) []domain.InboundRecord {
	out := make([]domain.InboundRecord, 0, len(batch))
	for _, rec := range batch {
		if rec.InboundQty > 0 {
			out = append(out, rec)
		}
	}
	return out
}
