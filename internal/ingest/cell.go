package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CellKind tags the variant held by a Cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single raw spreadsheet value: text, number or empty.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
}

// Row is one decoded sheet row; Grid is the first sheet of a document.
type (
	Row  []Cell
	Grid []Row
)

func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

func Number(v float64) Cell {
	return Cell{Kind: CellNumber, Num: v}
}

func Empty() Cell {
	return Cell{}
}

var plainNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// maxExactDigits is the longest digit run a float64 holds exactly.
const maxExactDigits = 15

// ParseCell classifies a raw decoder string. Only plain decimal numbers
// become Number cells; anything with a leading zero (barcodes, zip codes)
// or more than maxExactDigits digits (long ids) stays Text so no digits
// are lost.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if plainNumber.MatchString(s) && digitCount(s) <= maxExactDigits {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(v)
		}
	}
	return Cell{Kind: CellText, Text: raw}
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && strings.TrimSpace(c.Text) == "")
}

// String renders the cell as trimmed text. Whole numbers print without a
// fractional part so numeric barcodes survive the round trip.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		if c.Num == math.Trunc(c.Num) && math.Abs(c.Num) < 1e15 {
			return strconv.FormatInt(int64(c.Num), 10)
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return ""
}

var leadingNumber = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+`)

// Float coerces the cell leniently: thousands separators and trailing
// units are stripped, anything unparseable is 0.
func (c Cell) Float() float64 {
	switch c.Kind {
	case CellNumber:
		return c.Num
	case CellText:
		s := strings.TrimSpace(c.Text)
		s = strings.NewReplacer(",", "", " ", "").Replace(s)
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}

// Int truncates Float toward zero.
func (c Cell) Int() int {
	return int(c.Float())
}

// Qty is Int clamped at zero, for quantities that cannot be negative.
func (c Cell) Qty() int {
	if v := c.Int(); v > 0 {
		return v
	}
	return 0
}

func (r Row) at(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return Cell{}
	}
	return r[idx]
}

func (r Row) isEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// joined is the lower-cased, space-joined text of the whole row.
func (r Row) joined() string {
	parts := make([]string, 0, len(r))
	for _, c := range r {
		if s := c.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
