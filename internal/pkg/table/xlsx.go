package table

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	columnWidth  = 15
)

// WriteXLSX writes the table as a spreadsheet.
//
// The header occupies the first rows of the sheet, with the same merged cells as the HTML rendering.
// Numbers are written as numbers, enum values as their labels.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := t.SheetName
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("naming sheet %q: %w", sheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := t.writeHeader(f, sheet, headerStyle); err != nil {
		return err
	}

	if err := t.writeBody(f, sheet, len(t.Layout.Rows)); err != nil {
		return err
	}

	if t.Width() > 0 {
		last, err := excelize.ColumnNumberToName(t.Width())
		if err != nil {
			return err
		}

		if err := f.SetColWidth(sheet, "A", last, columnWidth); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	t.l.Info("spreadsheet written",
		slog.String("sheet", sheet),
		slog.Int("rows", t.Len()),
		slog.Int("columns", t.Width()),
	)

	return f.Write(w)
}

func (t *Table) writeHeader(f *excelize.File, sheet string, style int) error {
	for i := range t.Layout.Rows {
		for _, cell := range t.Layout.Rendered(i) {
			topLeft, err := excelize.CoordinatesToCellName(cell.Start+1, i+1)
			if err != nil {
				return err
			}

			bottomRight, err := excelize.CoordinatesToCellName(cell.Start+cell.ColSpan, i+cell.RowSpan)
			if err != nil {
				return err
			}

			if err := f.SetCellValue(sheet, topLeft, Label(cell)); err != nil {
				return fmt.Errorf("writing header %q: %w", cell.Header.ID, err)
			}

			if topLeft != bottomRight {
				if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
					return fmt.Errorf("merging header %q: %w", cell.Header.ID, err)
				}
			}

			if err := f.SetCellStyle(sheet, topLeft, bottomRight, style); err != nil {
				return fmt.Errorf("styling header %q: %w", cell.Header.ID, err)
			}
		}
	}

	return nil
}

func (t *Table) writeBody(f *excelize.File, sheet string, offset int) error {
	for r, values := range t.Values {
		for c, value := range values {
			name, err := excelize.CoordinatesToCellName(c+1, offset+r+1)
			if err != nil {
				return err
			}

			if err := f.SetCellValue(sheet, name, spreadsheetValue(value, t.Cells[r][c])); err != nil {
				return fmt.Errorf("writing cell %s: %w", name, err)
			}
		}
	}

	return nil
}

// spreadsheetValue keeps scalar values native, so that spreadsheet formulas apply to them.
func spreadsheetValue(value any, text string) any {
	switch v := value.(type) {
	case nil:
		return nil
	case float64, float32, int, int64, int32, bool, string:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			if i > -1<<53 && i < 1<<53 {
				return i
			}

			// spreadsheets store numbers as doubles
			return v.String()
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return text
	default:
		return text
	}
}
