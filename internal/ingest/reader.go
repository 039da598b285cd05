// Package ingest turns uploaded roster spreadsheets into validated rows.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions the reader cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported file format; use .csv, .xlsx or .xls")

// ErrEmptyFile is returned when the upload has no rows at all.
var ErrEmptyFile = errors.New("worksheet is empty")

const xlsMaxRows = 1 << 20

// ReadRows decodes a csv, xlsx or xls upload into raw string rows.
// The format is chosen from the file name extension.
func ReadRows(reader io.Reader, filename string) ([][]string, []string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows     [][]string
		warnings []string
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err = readCSV(data)
	case ".xlsx", ".xlsm":
		rows, warnings, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	default:
		return nil, nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return rows, warnings, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, []string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, errors.New("no worksheet found")
	}

	var warnings []string
	if count := file.SheetCount; count > 1 {
		warnings = append(warnings, fmt.Sprintf("workbook has %d sheets; only %q was read", count, sheetName))
	}

	// Raw values keep date cells as serials instead of the locale display text.
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return rows, warnings, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, errors.New("no worksheet found")
	}
	if workbook.NumSheets() > 1 {
		return nil, errors.New("multiple worksheets found; please upload a file with a single sheet")
	}
	return workbook.ReadAllCells(xlsMaxRows), nil
}
