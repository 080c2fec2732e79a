package ingest

import (
	"strings"
	"time"
	"unicode"
)

const isoDate = "2006-01-02"

// serialEpoch is day 0 of spreadsheet serial dates.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"2006.1.2",
	"2006. 1. 2.",
	"2006. 1. 2",
	"2006년 1월 2일",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"02-Jan-2006",
}

// NormalizeDate converts a raw date cell to YYYY-MM-DD. It tries, in
// order: an 8-digit 20YYMMDD run, a serial day count in [35000, 60000),
// then a list of common layouts with a year in (2000, 2100). When all fail
// the fallback day is returned.
func NormalizeDate(c Cell, fallback time.Time) string {
	if s, ok := compactDate(c); ok {
		return s
	}
	if c.Kind == CellNumber && c.Num >= 35000 && c.Num < 60000 {
		return serialEpoch.AddDate(0, 0, int(c.Num)).Format(isoDate)
	}
	if c.Kind == CellText {
		if s, ok := parseLayouts(strings.TrimSpace(c.Text)); ok {
			return s
		}
	}
	return fallback.Format(isoDate)
}

func compactDate(c Cell) (string, bool) {
	raw := c.String()
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) != 8 || !strings.HasPrefix(digits, "20") {
		return "", false
	}
	t, err := time.Parse("20060102", digits)
	if err != nil {
		return "", false
	}
	return t.Format(isoDate), true
}

func parseLayouts(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > 2000 && t.Year() < 2100 {
			return t.Format(isoDate), true
		}
	}
	return "", false
}
