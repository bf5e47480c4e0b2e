package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

const xlsxSheet = "Balance Sheet"

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	return f, nil
}

func setHeaderRow(f *excelize.File) error {
	header := make([]any, len(schema.AllFields))
	for i, field := range schema.AllFields {
		header[i] = string(field)
	}
	return f.SetSheetRow(xlsxSheet, "A1", &header)
}

func writeXLSX(w io.Writer, rows []ingest.ValidatedRow) error {
	f, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setHeaderRow(f); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cells := make([]any, len(schema.AllFields))
		for j, field := range schema.AllFields {
			cells[j] = cellValue(row[field])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTemplateXLSX(w io.Writer) error {
	f, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setHeaderRow(f); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
