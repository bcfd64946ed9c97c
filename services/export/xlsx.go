// Package exportsvc renders reports as Excel workbooks and PDF documents.
package exportsvc

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/faithpod/portal/core/report"
)

const (
	brandHex    = "175351" // rgb(23, 83, 81)
	numFmtMoney = 4        // #,##0.00
)

// XLSXRenderer writes one sheet named after the report, with a styled header row.
type XLSXRenderer struct{}

var _ report.Renderer = XLSXRenderer{}

func (XLSXRenderer) Render(w io.Writer, r report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := r.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, row := range r.Rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "locating row")
		}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	if err := styleSheet(f, sheet, r); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func styleSheet(f *excelize.File, sheet string, r report.Report) error {
	if len(r.Columns) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(r.Columns))
	if err != nil {
		return errors.Wrap(err, "locating last column")
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{brandHex}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetCellStyle(sheet, "A1", lastCol+"1", headStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}
	if err = f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	// amounts
	for i, c := range r.Columns {
		if c != "Amount" || len(r.Rows) == 0 {
			continue
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
		if err != nil {
			return errors.Wrap(err, "creating amount style")
		}
		if err = f.SetCellStyle(sheet, col+"2", col+strconv.Itoa(len(r.Rows)+1), moneyStyle); err != nil {
			return errors.Wrap(err, "styling amounts")
		}
	}
	return nil
}
