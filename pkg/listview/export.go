package listview

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX renders rows as a single-sheet workbook with a bold header.
func WriteXLSX(w io.Writer, sheet string, columns []Column, rows []Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("listview export: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("listview export: %w", err)
	}

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		label := c.Label
		if label == "" {
			label = c.Name
		}
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return err
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for i, c := range columns {
			v, _ := row.Get(c.Name)
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("listview export: %w", err)
	}
	return nil
}
