// Package excel renders tabular bundle documents as xlsx workbooks.
package excel

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows
type Table struct {
	Sheet   string
	Columns []string
	// Widths optionally overrides the default column width, keyed by column name
	Widths map[string]float64
	Rows   [][]any
}

const defaultColumnWidth = 20.0

// Render writes the table into a single-sheet workbook with a styled header row
func Render(table Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := table.Sheet
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	// Write headers
	for i, col := range table.Columns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", col, err)
		}
	}

	// Apply header styling
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil && len(table.Columns) > 0 {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(table.Columns))+strconv.Itoa(1), headerStyle)
	}

	for i, col := range table.Columns {
		colLetter := columnToLetter(i + 1)
		width := defaultColumnWidth
		if w, ok := table.Widths[col]; ok {
			width = w
		}
		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	for j, row := range table.Rows {
		rowNum := j + 2 // Start from row 2 (after headers)
		for i, value := range row {
			cell := fmt.Sprintf("%s%d", columnToLetter(i+1), rowNum)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
