// Package codec imports and exports workbook data in external formats.
//
// CSV is read and written directly with the standard library, since
// nothing in the example pack offers a CSV encoder worth pulling in for
// what is, line for line, a trivial format. XLSX support is declared as
// an interface only: see xlsx.go.
package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/nachocheesedog/ssengine"
)

// ImportCSV reads rows from r and writes them into sheet's named worksheet
// starting at A1, one record per row. Values are written through SetText
// so that "2", "TRUE", and "=A1+1" all get the coercion a typed-in cell
// would get.
func ImportCSV(sheet *ssengine.Safe, sheetName string, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("codec: reading CSV row %d: %w", row, err)
		}

		for col, field := range record {
			address := fmt.Sprintf("%s!%s%d", sheetName, columnLetters(col), row+1)
			if err := sheet.SetText(address, field); err != nil {
				return fmt.Errorf("codec: writing %s: %w", address, err)
			}
		}
		row++
	}
}

// ExportCSV writes every occupied cell of sheetName as a rectangular CSV
// grid, using Get (the computed value, not the formula text) for formula
// cells. Rows and columns between used cells are emitted as blank fields
// so the grid stays rectangular.
func ExportCSV(sheet *ssengine.Safe, sheetName string, w io.Writer) error {
	cells, err := sheet.UsedCells(sheetName)
	if err != nil {
		return err
	}
	if len(cells) == 0 {
		return nil
	}

	maxRow, maxCol := uint32(0), uint32(0)
	for _, c := range cells {
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Column > maxCol {
			maxCol = c.Column
		}
	}

	grid := make([][]string, maxRow+1)
	for i := range grid {
		grid[i] = make([]string, maxCol+1)
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Column < cells[j].Column
	})

	for _, c := range cells {
		address := sheet.FormatAddress(c)
		value, err := sheet.Get(address)
		if err != nil {
			return fmt.Errorf("codec: reading %s: %w", address, err)
		}
		grid[c.Row][c.Column] = formatCSVValue(value)
	}

	writer := csv.NewWriter(w)
	for _, row := range grid {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCSVValue(value ssengine.Primitive) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return ssengine.FormatCanonicalNumber(v)
	case *ssengine.SpreadsheetError:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

// columnLetters converts a 0-based column index to spreadsheet column
// letters (0 -> "A", 25 -> "Z", 26 -> "AA").
func columnLetters(col int) string {
	var letters []byte
	col++
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}
