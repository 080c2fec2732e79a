package analytics

import (
	"sort"
	"strings"

	"github.com/andresuchdata/stockpilot/internal/domain"
)

// LatestDate returns the greatest date present in sales, or "" when empty.
func LatestDate(sales []domain.SalesRecord) string {
	latest := ""
	for _, rec := range sales {
		if rec.Date > latest {
			latest = rec.Date
		}
	}
	return latest
}

// DistinctDates returns every date present in sales, ascending.
func DistinctDates(sales []domain.SalesRecord) []string {
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, rec := range sales {
		if _, ok := seen[rec.Date]; ok {
			continue
		}
		seen[rec.Date] = struct{}{}
		dates = append(dates, rec.Date)
	}
	sort.Strings(dates)
	return dates
}

// BuildSummaries joins sales onto the product master by barcode. Every
// master row yields a summary even without sales; sales whose barcode is
// not in the master become orphan summaries keyed by their raw barcode.
// Master summaries come first in master order, orphans follow in the
// order they were first seen.
func BuildSummaries(sales []domain.SalesRecord, masters []domain.ProductMaster) []domain.ProductSummary {
	index := make(map[string]int, len(masters))
	orphans := make(map[string]int)
	summaries := make([]domain.ProductSummary, 0, len(masters))

	for _, m := range masters {
		barcode := strings.TrimSpace(m.Barcode)
		if barcode == "" {
			continue
		}
		hq := 0
		if m.HQInventory != nil {
			hq = *m.HQInventory
		}
		if i, ok := index[barcode]; ok {
			summaries[i].HQInventory = hq
			continue
		}
		index[barcode] = len(summaries)
		summaries = append(summaries, domain.ProductSummary{
			ProductID:     barcode,
			SkuID:         m.SkuID,
			ProductName:   m.SkuName,
			Barcode:       barcode,
			ImageURL:      m.ImageURL,
			CostPrice:     m.CostPrice,
			HQInventory:   hq,
			DailySalesMap: make(map[string]int),
		})
	}

	latest := LatestDate(sales)
	for _, rec := range sales {
		i, ok := index[strings.TrimSpace(rec.Barcode)]
		if !ok {
			key := rec.Barcode
			if key == "" { // barcode-less orphans stay apart by product id
				key = rec.ProductID
			}
			i, ok = orphans[key]
			if !ok {
				i = len(summaries)
				orphans[key] = i
				summaries = append(summaries, domain.ProductSummary{
					ProductID:     key,
					SkuID:         rec.SkuID,
					ProductName:   rec.ProductName,
					Barcode:       rec.Barcode,
					DailySalesMap: make(map[string]int),
					Orphan:        true,
				})
			}
		}

		s := &summaries[i]
		if s.ProductName == "" {
			s.ProductName = rec.ProductName
		}
		s.CumulativeSales += rec.SalesQty
		s.DailySalesMap[rec.Date] += rec.SalesQty
		if rec.Date == latest {
			s.CoupangInventory += rec.InventoryQty
		}
	}

	return summaries
}

// GroupByName folds summaries sharing a product name into groups, in the
// order names are first seen.
func GroupByName(summaries []domain.ProductSummary) []domain.ProductGroup {
	index := make(map[string]int)
	groups := make([]domain.ProductGroup, 0)
	for _, s := range summaries {
		i, ok := index[s.ProductName]
		if !ok {
			i = len(groups)
			index[s.ProductName] = i
			groups = append(groups, domain.ProductGroup{
				GroupName:     s.ProductName,
				DailySalesMap: make(map[string]int),
			})
		}

		g := &groups[i]
		if g.ImageURL == "" {
			g.ImageURL = s.ImageURL
		}
		g.TotalSales += s.CumulativeSales
		g.TotalCoupangInventory += s.CoupangInventory
		g.TotalHQInventory += s.HQInventory
		for date, qty := range s.DailySalesMap {
			g.DailySalesMap[date] += qty
		}
		g.Items = append(g.Items, s)
	}
	return groups
}

// Group sort keys accepted by SortGroups.
const (
	SortBySales   = "sales"
	SortByCoupang = "coupang"
	SortByHQ      = "hq"
	SortByName    = "name"
)

// SortGroups orders groups in place by key. Unknown keys sort by sales.
// Ties fall back to the group name.
func SortGroups(groups []domain.ProductGroup, key string, desc bool) {
	value := func(g domain.ProductGroup) int {
		switch key {
		case SortByCoupang, "inventory":
			return g.TotalCoupangInventory
		case SortByHQ:
			return g.TotalHQInventory
		}
		return g.TotalSales
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if key == SortByName {
			if desc {
				return a.GroupName > b.GroupName
			}
			return a.GroupName < b.GroupName
		}
		va, vb := value(a), value(b)
		if va == vb {
			return a.GroupName < b.GroupName
		}
		if desc {
			return va > vb
		}
		return va < vb
	})
}
