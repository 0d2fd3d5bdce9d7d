package billing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"Invoice No",
	"Date",
	"Patient Name",
	"UHID",
	"Scheme",
	"Items",
	"Amount",
	"Status",
	"Mode",
}

// ExportXLSX renders the invoice ledger to a spreadsheet for the accounts
// desk, newest invoice first, one row per invoice.
func ExportXLSX(invoices []*Invoice) ([]byte, error) {
	f := excelize.NewFile()

	const sheetName = "Invoices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header style: %w", err)
		}
	}

	columnWidths := []float64{14, 20, 24, 20, 18, 40, 12, 10, 16}
	for i := range exportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for rowIdx, inv := range invoices {
		row := rowIdx + 2
		values := []interface{}{
			inv.Number,
			inv.Date.Format("2006-01-02 15:04"),
			inv.PatientName,
			inv.UHID,
			inv.Scheme,
			itemSummary(inv.Items),
			inv.Amount,
			string(inv.Status),
			inv.Mode,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func itemSummary(items []LineItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s (%.2f)", it.Description, it.Amount)
	}
	return strings.Join(parts, "; ")
}
