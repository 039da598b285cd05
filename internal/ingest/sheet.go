package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/staffdesk/roster-service/internal/dates"
	"github.com/staffdesk/roster-service/internal/domain"
)

// ErrMissingFilenoColumn is returned when no header cell maps to fileno.
var ErrMissingFilenoColumn = errors.New("header row has no file number column")

// ErrTooManyRows is returned when the upload exceeds the configured row limit.
var ErrTooManyRows = errors.New("too many rows")

// Row is one data line of an upload, restricted to recognized columns.
type Row struct {
	Line  int
	Cells map[domain.Field]string
}

// Fileno returns the row's key cell.
func (r Row) Fileno() string {
	return r.Cells[domain.FieldFileno]
}

// Sheet is a parsed upload.
type Sheet struct {
	Columns  []domain.Field
	Rows     []Row
	Warnings []string
}

// Has reports whether the header carried the field.
func (s *Sheet) Has(f domain.Field) bool {
	for _, c := range s.Columns {
		if c == f {
			return true
		}
	}
	return false
}

// Parse reads an upload and maps its header onto record fields.
// maxRows <= 0 disables the row limit.
func Parse(reader io.Reader, filename string, maxRows int) (*Sheet, error) {
	raw, warnings, err := ReadRows(reader, filename)
	if err != nil {
		return nil, err
	}

	headerIdx := -1
	for i, row := range raw {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	sheet := &Sheet{Warnings: warnings}
	index := map[domain.Field]int{}
	for i, cell := range raw[headerIdx] {
		if normalizeHeader(cell) == "" {
			continue
		}
		f, ok := lookupColumn(cell)
		if !ok {
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("ignored column %q", cell))
			continue
		}
		if _, dup := index[f]; dup {
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("duplicate column %q for %s; first one used", cell, f))
			continue
		}
		index[f] = i
		sheet.Columns = append(sheet.Columns, f)
	}
	if _, ok := index[domain.FieldFileno]; !ok {
		return nil, ErrMissingFilenoColumn
	}

	for i := headerIdx + 1; i < len(raw); i++ {
		if blank(raw[i]) {
			continue
		}
		cells := make(map[domain.Field]string, len(index))
		for f, idx := range index {
			cells[f] = cellValue(raw[i], idx)
		}
		sheet.Rows = append(sheet.Rows, Row{Line: i + 1, Cells: cells})
		if maxRows > 0 && len(sheet.Rows) > maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
	}
	return sheet, nil
}

// Validate checks every row independently of the store: key present, key unique
// within the file, cells convertible, and full name present when requireName is set.
// It returns the rows that passed and an issue per row that did not.
func (s *Sheet) Validate(requireName bool) ([]Row, []domain.RowIssue) {
	seen := make(map[string]int, len(s.Rows))
	valid := make([]Row, 0, len(s.Rows))
	var issues []domain.RowIssue

	for _, row := range s.Rows {
		fileno := row.Fileno()
		if fileno == "" {
			issues = append(issues, domain.RowIssue{Line: row.Line, Reason: "missing file number"})
			continue
		}
		if first, dup := seen[fileno]; dup {
			issues = append(issues, domain.RowIssue{
				Line:   row.Line,
				Fileno: fileno,
				Reason: fmt.Sprintf("file number repeated from line %d", first),
			})
			continue
		}
		seen[fileno] = row.Line

		if requireName && row.Cells[domain.FieldFullName] == "" {
			issues = append(issues, domain.RowIssue{Line: row.Line, Fileno: fileno, Reason: "missing full name"})
			continue
		}
		if err := Apply(row, &domain.StaffRecord{}, false); err != nil {
			issues = append(issues, domain.RowIssue{Line: row.Line, Fileno: fileno, Reason: err.Error()})
			continue
		}
		valid = append(valid, row)
	}
	return valid, issues
}

// NewRecord builds a fresh record from a row.
func NewRecord(row Row) (*domain.StaffRecord, error) {
	rec := &domain.StaffRecord{Fileno: row.Fileno()}
	if err := Apply(row, rec, false); err != nil {
		return nil, err
	}
	return rec, nil
}

// Apply writes the row's cells onto rec. With keepBlank set, empty cells leave the
// existing value in place. The fileno cell is never applied.
func Apply(row Row, rec *domain.StaffRecord, keepBlank bool) error {
	for _, f := range domain.RecordFields {
		value, ok := row.Cells[f]
		if !ok || f == domain.FieldFileno {
			continue
		}
		if value == "" && keepBlank {
			continue
		}
		switch {
		case f == domain.FieldDOB:
			dob, err := dates.NormalizeDOB(value)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			rec.DOB = dob
		case f.IsDate():
			day, err := dates.ParseAppointmentDate(value)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			rec.SetDate(f, day)
		default:
			rec.SetText(f, value)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
