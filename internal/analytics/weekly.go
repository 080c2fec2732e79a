package analytics

import (
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
)

const dateLayout = "2006-01-02"

// WeekStart returns the Friday on or before date. Weeks run Friday to
// Thursday.
func WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 2) % 7
	return date.AddDate(0, 0, -offset)
}

// CompareWeeks sums sales of the week containing latest and the week
// before it.
func CompareWeeks(sales []domain.SalesRecord, latest string) domain.WeeklyComparison {
	day, err := time.Parse(dateLayout, latest)
	if err != nil {
		return domain.WeeklyComparison{}
	}

	thisStart := WeekStart(day)
	thisEnd := thisStart.AddDate(0, 0, 6)
	lastStart := thisStart.AddDate(0, 0, -7)
	lastEnd := thisStart.AddDate(0, 0, -1)

	cmp := domain.WeeklyComparison{
		ThisWeekStart: thisStart.Format(dateLayout),
		ThisWeekEnd:   thisEnd.Format(dateLayout),
		LastWeekStart: lastStart.Format(dateLayout),
		LastWeekEnd:   lastEnd.Format(dateLayout),
	}

	for _, rec := range sales {
		switch {
		case rec.Date >= cmp.ThisWeekStart && rec.Date <= cmp.ThisWeekEnd:
			cmp.ThisWeekSales += rec.SalesQty
		case rec.Date >= cmp.LastWeekStart && rec.Date <= cmp.LastWeekEnd:
			cmp.LastWeekSales += rec.SalesQty
		}
	}

	cmp.GrowthRate = GrowthRate(cmp.ThisWeekSales, cmp.LastWeekSales)
	return cmp
}

// GrowthRate is the percent change from last to this. A zero baseline
// reads as 100% growth when there are sales now, else 0.
func GrowthRate(this, last int) float64 {
	if last == 0 {
		if this != 0 {
			return 100
		}
		return 0
	}
	return float64(this-last) / float64(last) * 100
}
