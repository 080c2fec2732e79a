package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCellKeepsLeadingZeros(t *testing.T) {
	c := ParseCell("0012345")
	assert.Equal(t, CellText, c.Kind)
	assert.Equal(t, "0012345", c.String())

	n := ParseCell(" 8801234567890 ")
	assert.Equal(t, CellNumber, n.Kind)
	assert.Equal(t, "8801234567890", n.String())

	assert.Equal(t, CellEmpty, ParseCell("   ").Kind)
}

func TestParseCellKeepsLongIDsExact(t *testing.T) {
	id := ParseCell("12345678901234567890")
	assert.Equal(t, CellText, id.Kind)
	assert.Equal(t, "12345678901234567890", id.String())

	vendorItem := ParseCell("9007199254740993")
	assert.Equal(t, CellText, vendorItem.Kind)
	assert.Equal(t, "9007199254740993", vendorItem.String())

	edge := ParseCell("123456789012345")
	assert.Equal(t, CellNumber, edge.Kind)
	assert.Equal(t, "123456789012345", edge.String())
	assert.Equal(t, 4, ParseCell("4.5").Int())
}

func TestCellLenientNumbers(t *testing.T) {
	cases := []struct {
		cell Cell
		want int
	}{
		{Text("1,234"), 1234},
		{Text("12개"), 12},
		{Text("3.9 EA"), 3},
		{Text("N/A"), 0},
		{Text("-"), 0},
		{Number(7), 7},
		{Empty(), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cell.Int(), "cell %+v", tc.cell)
	}

	assert.Equal(t, 0, Text("-5").Qty())
	assert.Equal(t, -5, Text("-5").Int())
}
