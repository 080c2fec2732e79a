package ingest

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIngestor() *Ingestor {
	return NewIngestor(time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	})
}

func TestIngestSales(t *testing.T) {
	grid := Grid{
		textRow("쿠팡 판매 리포트"),
		textRow("날짜", "상품ID", "옵션ID", "상품명", "바코드", "반품수량", "판매수량", "재고"),
		Row{Number(20260130), Text("P1"), Text("S1"), Text("상품A"), Text("8801"), Number(0), Number(3), Number(10)},
		textRow("2026-01-30", "P1", "S1", "상품A", "8801", "0", "2", "10"),
		textRow("합계", "", "", "", "", "", "5", "20"),
		textRow(),
		Row{Number(46051), Text("P2"), Empty(), Text("상품B"), Text("8802"), Empty(), Text("1,200"), Text("재고없음")},
		textRow("??", "P3", "", "상품C", "8803", "", "1", "4"),
	}

	records, errs := testIngestor().Sales(grid)
	require.Empty(t, errs)
	require.Len(t, records, 4)

	assert.Equal(t, "P1", records[0].ProductID)
	assert.Equal(t, "S1", records[0].SkuID)
	assert.Equal(t, "2026-01-30", records[0].Date)
	assert.Equal(t, 3, records[0].SalesQty)
	assert.Equal(t, 10, records[0].InventoryQty)

	assert.Equal(t, 2, records[1].SalesQty)

	assert.Equal(t, "2026-01-29", records[2].Date)
	assert.Equal(t, 1200, records[2].SalesQty)
	assert.Equal(t, 0, records[2].InventoryQty)

	// unparseable date falls back to the clock's day without an error
	assert.Equal(t, "2026-02-01", records[3].Date)
}

func TestIngestSalesProductIDFallsBackToBarcode(t *testing.T) {
	grid := Grid{
		textRow("Date", "Product Name", "Barcode", "Sales Qty"),
		textRow("2026-01-30", "Soap", "8801", "4"),
		textRow("2026-01-30", "Brush", "", "1"),
	}

	records, errs := testIngestor().Sales(grid)
	require.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, "8801", records[0].ProductID)
	assert.Equal(t, "Brush", records[1].ProductID)
}

func TestIngestSalesStructuralError(t *testing.T) {
	records, errs := testIngestor().Sales(Grid{textRow("비고", "메모"), textRow("a", "b")})
	assert.Empty(t, records)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "required column not found")
}

func TestIngestMaster(t *testing.T) {
	grid := Grid{
		textRow("바코드", "상품명", "SKU ID", "카테고리", "원가", "이미지", "본사재고"),
		textRow(" 123 ", "크림", "S-1", "뷰티", "12,000원", "http://img/1.png", "40"),
		textRow("", "바코드없음", "S-2", "", "", "", "1"),
		textRow("0456", "로션", "", "", "", "", ""),
	}

	records, errs := testIngestor().Master(grid)
	require.Empty(t, errs)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "123", first.Barcode)
	assert.Equal(t, "크림", first.SkuName)
	assert.Equal(t, "S-1", first.SkuID)
	assert.Equal(t, "뷰티", first.Category)
	require.NotNil(t, first.CostPrice)
	assert.Equal(t, "12000", first.CostPrice.String())
	assert.Equal(t, "http://img/1.png", first.ImageURL)
	require.NotNil(t, first.HQInventory)
	assert.Equal(t, 40, *first.HQInventory)

	assert.True(t, first.Columns.Has(domain.MasterCategory))
	assert.True(t, first.Columns.Has(domain.MasterHQInventory))

	second := records[1]
	assert.Equal(t, "0456", second.Barcode)
	assert.Nil(t, second.CostPrice)
	assert.Nil(t, second.HQInventory)
}

func TestIngestInbound(t *testing.T) {
	grid := Grid{
		textRow("바코드", "상품명", "입고예정수량"),
		textRow("8801", "상품A", "5"),
		textRow("8802", "상품B", "0"),
		textRow("8803", "상품C", "-3"),
		textRow("8804", "상품D", "10개"),
		textRow("소계", "", "15"),
	}

	records, errs := testIngestor().Inbound(grid)
	require.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, "상품A", records[0].ProductName)
	assert.Equal(t, 5, records[0].InboundQty)
	assert.Equal(t, "8804", records[1].Barcode)
	assert.Equal(t, 10, records[1].InboundQty)
}
