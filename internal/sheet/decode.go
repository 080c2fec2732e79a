// Package sheet decodes uploaded spreadsheet documents into ingest grids.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/stockpilot/internal/ingest"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for documents that are neither XLSX nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// Format is a decodable document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks a decoder from the file name, falling back to the
// content when the extension says nothing.
func DetectFormat(name string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls, re-save as .xlsx", ErrUnsupportedFormat)
	}
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX, nil
	}
	if len(head) > 0 && bytes.IndexByte(head, 0) < 0 {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Decode reads the first sheet of the document into a grid of raw cells.
func Decode(name string, r io.Reader) (ingest.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	format, err := DetectFormat(name, head)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return decodeXLSX(name, data)
	default:
		return decodeCSV(name, data)
	}
}

func decodeXLSX(name string, data []byte) (ingest.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets: %w", name, ingest.ErrEmptyGrid)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	// Raw values keep date cells as serial numbers and numbers unformatted.
	var grid ingest.Grid
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", name, err)
		}
		grid = append(grid, toRow(record))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", name, err)
	}

	return trimTrailingEmpty(grid), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeCSV(name string, data []byte) (ingest.Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		// Korean Excel saves CSV as CP949 by default.
		src = transform.NewReader(src, korean.EUCKR.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if bytes.Count(firstLine(data), []byte("\t")) > bytes.Count(firstLine(data), []byte(",")) {
		reader.Comma = '\t'
	}

	var grid ingest.Grid
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record from %s: %w", name, err)
		}
		grid = append(grid, toRow(record))
	}

	return trimTrailingEmpty(grid), nil
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

func toRow(record []string) ingest.Row {
	row := make(ingest.Row, len(record))
	for i, raw := range record {
		row[i] = ingest.ParseCell(raw)
	}
	return row
}

func trimTrailingEmpty(grid ingest.Grid) ingest.Grid {
	for len(grid) > 0 && isBlank(grid[len(grid)-1]) {
		grid = grid[:len(grid)-1]
	}
	return grid
}

func isBlank(row ingest.Row) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
