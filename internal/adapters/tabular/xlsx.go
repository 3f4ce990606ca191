package tabular

import (
	"fmt"

	"github.com/tealeg/xlsx/v2"
)

// openXLSX loads one sheet of a workbook. An empty sheet name selects the
// first sheet.
func openXLSX(path, sheetName string) (rowReader, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return &sliceReader{rows: rows}, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, fmt.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

// rowToStrings keeps raw cell values; a display format such as "0.00" would
// otherwise round coordinates.
func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.Value
	}
	return cells
}
