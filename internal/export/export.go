// Package export renders batch results as CSV or XLSX downloads.
package export

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"qp-hub-backend/internal/csvrecord"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "결과"

func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func Render(f Format, header []string, rows [][]string) ([]byte, error) {
	if f == FormatXLSX {
		return XLSX(header, rows)
	}
	return CSV(header, rows), nil
}

// CSV is BOM-prefixed so spreadsheet tools detect UTF-8.
func CSV(header []string, rows [][]string) []byte {
	return csvrecord.AddBOM([]byte(csvrecord.Format(header, rows)))
}

func XLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "open stream writer")
	}
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.Wrap(err, "cell name")
		}
		if err := sw.SetRow(cell, toCells(r)); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+1)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, errors.Wrap(err, "flush sheet")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
