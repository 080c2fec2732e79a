package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// Role is the semantic meaning of a sheet column.
type Role int

const (
	RoleDate Role = iota
	RoleProductID
	RoleSkuID
	RoleProductName
	RoleBarcode
	RoleSalesQty
	RoleInventoryQty
	RoleSkuName
	RoleCategory
	RoleCostPrice
	RoleImageURL
	RoleHQInventory
	RoleInboundQty
)

var roleNames = map[Role]string{
	RoleDate:         "date",
	RoleProductID:    "product id",
	RoleSkuID:        "sku id",
	RoleProductName:  "product name",
	RoleBarcode:      "barcode",
	RoleSalesQty:     "sales quantity",
	RoleInventoryQty: "inventory",
	RoleSkuName:      "sku name",
	RoleCategory:     "category",
	RoleCostPrice:    "cost price",
	RoleImageURL:     "image url",
	RoleHQInventory:  "hq inventory",
	RoleInboundQty:   "inbound quantity",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

var (
	ErrEmptyGrid     = errors.New("sheet has no rows")
	ErrMissingColumn = errors.New("required column not found")
)

const maxHeaderScanRows = 20

var (
	headerDatePattern    = regexp.MustCompile(`날짜|일자|date|기간`)
	headerProductPattern = regexp.MustCompile(`상품|제품|product|바코드|barcode|sku|옵션|item`)
	totalRowPattern      = regexp.MustCompile(`^(합\s*계|총\s*계|소\s*계|누\s*계|total|sub\s*-?\s*total|grand\s*total)(\s|:|\(|$)`)
)

const (
	notSalesQtyPattern    = `반품|return|입고|inbound|재고|stock|inventory|취소|cancel`
	productNamePatternT1  = `^(상품명|제품명|product\s*name|노출상품명|등록상품명)$`
	barcodePatternT1      = `^(바코드|barcode|ean|upc|gtin)$`
	barcodePatternT2      = `바코드|barcode|ean|upc|gtin`
	skuIDPatternT1        = `^(옵션\s*id|sku\s*id|option\s*id|vendor\s*item\s*id)$`
	skuIDPatternT2        = `옵션\s*id|sku\s*id|option\s*id|sku`
	skuIDExclusionPattern = `명|name`
)

// columnRule is one keyword tier for one role of one dataset kind. Tiers
// of a role are evaluated in ascending order; the first tier matching any
// column wins and the leftmost matching column of that tier is chosen.
type columnRule struct {
	kind    domain.DatasetKind
	role    Role
	tier    int
	match   *regexp.Regexp
	exclude *regexp.Regexp
}

func rule(kind domain.DatasetKind, role Role, tier int, match, exclude string) columnRule {
	r := columnRule{kind: kind, role: role, tier: tier, match: regexp.MustCompile(match)}
	if exclude != "" {
		r.exclude = regexp.MustCompile(exclude)
	}
	return r
}

var columnRules = []columnRule{
	rule(domain.KindSales, RoleDate, 1, `^(날짜|일자|판매일|판매일자|기준일|기준일자|date|sales\s*date)$`, ""),
	rule(domain.KindSales, RoleDate, 2, `날짜|일자|date|기간`, ""),
	rule(domain.KindSales, RoleProductID, 1, `^(상품\s*id|product\s*id|노출상품\s*id|등록상품\s*id)$`, ""),
	rule(domain.KindSales, RoleProductID, 2, `상품\s*id|product\s*id|상품번호|product\s*(no|number|code)`, ""),
	rule(domain.KindSales, RoleSkuID, 1, skuIDPatternT1, ""),
	rule(domain.KindSales, RoleSkuID, 2, skuIDPatternT2, skuIDExclusionPattern),
	rule(domain.KindSales, RoleProductName, 1, productNamePatternT1, ""),
	rule(domain.KindSales, RoleProductName, 2, `상품명|제품명|품명|product\s*name|item\s*name`, `옵션|option|sku`),
	rule(domain.KindSales, RoleProductName, 3, `옵션명|name`, ""),
	rule(domain.KindSales, RoleBarcode, 1, barcodePatternT1, ""),
	rule(domain.KindSales, RoleBarcode, 2, barcodePatternT2, ""),
	rule(domain.KindSales, RoleSalesQty, 1, `판매\s*수량|판매량|sales\s*(qty|quantity)|units\s*sold|qty\s*sold`, notSalesQtyPattern),
	rule(domain.KindSales, RoleSalesQty, 2, `판매|sales|sold|출고`, notSalesQtyPattern+`|금액|매출액|amount|price|revenue|가격|판매가|일자|판매일|date`),
	rule(domain.KindSales, RoleSalesQty, 3, `수량|qty|quantity|개수`, notSalesQtyPattern),
	rule(domain.KindSales, RoleInventoryQty, 1, `^(재고|재고수량|현재고|쿠팡재고|inventory|stock|stock\s*qty|inventory\s*qty)$`, ""),
	rule(domain.KindSales, RoleInventoryQty, 2, `재고|inventory|stock`, `입고|inbound|본사|hq|창고|warehouse|금액|amount|value`),

	rule(domain.KindMaster, RoleBarcode, 1, barcodePatternT1, ""),
	rule(domain.KindMaster, RoleBarcode, 2, barcodePatternT2, ""),
	rule(domain.KindMaster, RoleSkuName, 1, `^(sku\s*명|sku\s*name|옵션명|상품명|제품명|product\s*name)$`, ""),
	rule(domain.KindMaster, RoleSkuName, 2, `상품명|제품명|옵션명|sku\s*명|품명|name`, ""),
	rule(domain.KindMaster, RoleSkuID, 1, skuIDPatternT1, ""),
	rule(domain.KindMaster, RoleSkuID, 2, skuIDPatternT2, skuIDExclusionPattern),
	rule(domain.KindMaster, RoleCategory, 1, `카테고리|category|분류`, ""),
	rule(domain.KindMaster, RoleCostPrice, 1, `원가|매입가|공급가|cost|purchase\s*price`, ""),
	rule(domain.KindMaster, RoleImageURL, 1, `이미지|image|img|사진|썸네일|thumbnail`, ""),
	rule(domain.KindMaster, RoleImageURL, 2, `url|link|링크`, ""),
	rule(domain.KindMaster, RoleHQInventory, 1, `본사\s*재고|hq|창고\s*재고|warehouse`, ""),
	rule(domain.KindMaster, RoleHQInventory, 2, `재고|stock|inventory`, `쿠팡|coupang|입고|inbound`),

	rule(domain.KindInbound, RoleBarcode, 1, barcodePatternT1, ""),
	rule(domain.KindInbound, RoleBarcode, 2, barcodePatternT2, ""),
	rule(domain.KindInbound, RoleProductName, 1, productNamePatternT1, ""),
	rule(domain.KindInbound, RoleProductName, 2, `상품명|제품명|품명|name`, ""),
	rule(domain.KindInbound, RoleInboundQty, 1, `입고\s*(예정\s*)?수량|입고\s*예정|입고량|inbound`, ""),
	rule(domain.KindInbound, RoleInboundQty, 2, `수량|qty|quantity`, `판매|sales|반품|return|재고|stock`),
}

// positionalFallback is used when no header matched a role.
var positionalFallback = map[domain.DatasetKind]map[Role]int{
	domain.KindMaster:  {RoleBarcode: 0},
	domain.KindInbound: {RoleBarcode: 0},
}

// Columns is the outcome of header detection.
type Columns struct {
	HeaderRow int
	index     map[Role]int
}

// Index returns the column for role, or -1 and false when unresolved.
func (c Columns) Index(role Role) (int, bool) {
	idx, ok := c.index[role]
	if !ok {
		return -1, false
	}
	return idx, true
}

func (c Columns) has(role Role) bool {
	_, ok := c.index[role]
	return ok
}

// col is Index without the flag; -1 reads as an empty cell via Row.at.
func (c Columns) col(role Role) int {
	idx, _ := c.Index(role)
	return idx
}

// DetectColumns locates the header row and resolves every role of kind
// to a column index.
func DetectColumns(grid Grid, kind domain.DatasetKind) (Columns, error) {
	if len(grid) == 0 {
		return Columns{}, ErrEmptyGrid
	}

	headerRow := 0
	if kind == domain.KindSales {
		headerRow = findHeaderRow(grid)
	}

	headers := make([]string, len(grid[headerRow]))
	for i, cell := range grid[headerRow] {
		headers[i] = normalizeHeader(cell.String())
	}

	cols := Columns{HeaderRow: headerRow, index: make(map[Role]int)}
	for _, role := range rolesOf(kind) {
		if idx, ok := resolveRole(headers, kind, role); ok {
			cols.index[role] = idx
			continue
		}
		if idx, ok := positionalFallback[kind][role]; ok && idx < len(headers) {
			cols.index[role] = idx
		}
	}

	if err := checkRequired(cols, kind); err != nil {
		return cols, err
	}
	return cols, nil
}

func findHeaderRow(grid Grid) int {
	limit := len(grid)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}
	for i := 0; i < limit; i++ {
		text := normalizeHeader(grid[i].joined())
		if headerDatePattern.MatchString(text) && headerProductPattern.MatchString(text) {
			return i
		}
	}
	return 0
}

// rolesOf lists the roles of kind in rule-table order, without duplicates.
func rolesOf(kind domain.DatasetKind) []Role {
	seen := make(map[Role]struct{})
	var roles []Role
	for _, r := range columnRules {
		if r.kind != kind {
			continue
		}
		if _, ok := seen[r.role]; ok {
			continue
		}
		seen[r.role] = struct{}{}
		roles = append(roles, r.role)
	}
	return roles
}

func resolveRole(headers []string, kind domain.DatasetKind, role Role) (int, bool) {
	for _, r := range columnRules {
		if r.kind != kind || r.role != role {
			continue
		}
		for i, h := range headers {
			if h == "" || !r.match.MatchString(h) {
				continue
			}
			if r.exclude != nil && r.exclude.MatchString(h) {
				continue
			}
			return i, true
		}
	}
	return -1, false
}

func checkRequired(cols Columns, kind domain.DatasetKind) error {
	switch kind {
	case domain.KindSales:
		if !cols.has(RoleProductName) && !cols.has(RoleBarcode) {
			return fmt.Errorf("%w: neither %s nor %s", ErrMissingColumn, RoleProductName, RoleBarcode)
		}
		if !cols.has(RoleDate) && !cols.has(RoleSalesQty) {
			return fmt.Errorf("%w: neither %s nor %s", ErrMissingColumn, RoleDate, RoleSalesQty)
		}
	case domain.KindInbound:
		if !cols.has(RoleInboundQty) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, RoleInboundQty)
		}
	}
	return nil
}

var spaceRun = regexp.MustCompile(`\s+`)

// normalizeHeader folds full-width forms, lower-cases and collapses
// whitespace so keyword patterns see one canonical spelling.
func normalizeHeader(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return spaceRun.ReplaceAllString(s, " ")
}

func isTotalRow(s string) bool {
	return totalRowPattern.MatchString(normalizeHeader(s))
}
