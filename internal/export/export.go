// Package export renders the roster contact projection (fileno, phone, email).
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/staffdesk/roster-service/internal/domain"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Header is the column order of every export.
var Header = []string{"fileno", "phone", "email"}

const sheetName = "Staff"

// ParseFormat maps a query value to a Format. Empty selects CSV.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", value)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns staff_export_<YYYY-MM-DD>.<ext> for the given day.
func Filename(f Format, day time.Time) string {
	return fmt.Sprintf("staff_export_%s.%s", day.Format("2006-01-02"), f)
}

// Write renders records in the order given.
func Write(w io.Writer, f Format, records []domain.StaffRecord) error {
	if f == FormatXLSX {
		return WriteXLSX(w, records)
	}
	return WriteCSV(w, records)
}

// WriteCSV writes a bare header line then one line per record with every value quoted.
// Lines are separated by \n with no trailing newline.
func WriteCSV(w io.Writer, records []domain.StaffRecord) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(Header, ","))
	for i := range records {
		values := []string{records[i].Fileno, records[i].Phone, records[i].Email}
		bw.WriteByte('\n')
		for j, v := range values {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(v, `"`, `""`))
			bw.WriteByte('"')
		}
	}
	return bw.Flush()
}

// WriteXLSX writes the same projection as a single-sheet workbook. Cells are text
// so phone numbers keep their leading zeros.
func WriteXLSX(w io.Writer, records []domain.StaffRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toCells(Header...)); err != nil {
		return err
	}
	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(records[i].Fileno, records[i].Phone, records[i].Email)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func toCells(values ...string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = excelize.Cell{Value: v}
	}
	return cells
}
