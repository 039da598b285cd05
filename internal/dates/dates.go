// Package dates converts between the roster's stored date forms and display forms.
package dates

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidDOB is returned when a date of birth cannot be reduced to YYMMDD.
var ErrInvalidDOB = errors.New("dob must be 6 digits (YYMMDD)")

// ErrInvalidDate is returned when an appointment date cannot be parsed.
var ErrInvalidDate = errors.New("unrecognized date")

// FormatDOB renders a YYMMDD value as dd/mm/yy. Any other length is returned unchanged.
func FormatDOB(dob string) string {
	if len(dob) != 6 {
		return dob
	}
	return dob[4:6] + "/" + dob[2:4] + "/" + dob[0:2]
}

// ParseDOB converts dd/mm/yy back to YYMMDD, zero-padding each part.
// Input that is not three slash-separated parts is returned unchanged.
func ParseDOB(display string) string {
	if display == "" {
		return ""
	}
	parts := strings.Split(display, "/")
	if len(parts) != 3 {
		return display
	}
	return padLeft(parts[2], 2) + padLeft(parts[1], 2) + padLeft(parts[0], 2)
}

// FormatGeneralDate renders "1998-08-11 00:00:00" or an RFC3339 value as dd/mm/yyyy.
// Unparseable input is returned unchanged.
func FormatGeneralDate(value string) string {
	if value == "" {
		return ""
	}
	onlyDate := strings.SplitN(value, " ", 2)[0]
	onlyDate = strings.SplitN(onlyDate, "T", 2)[0]
	if parts := strings.Split(onlyDate, "-"); len(parts) == 3 {
		return parts[2] + "/" + parts[1] + "/" + parts[0]
	}
	return value
}

// IsValidDOB reports whether dob is empty or exactly six digits.
func IsValidDOB(dob string) bool {
	if dob == "" {
		return true
	}
	if len(dob) != 6 {
		return false
	}
	for _, r := range dob {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeDOB reduces a spreadsheet cell to YYMMDD. It accepts the stored form,
// numeric cells that lost a leading zero, and the dd/mm/yy display form.
func NormalizeDOB(cell string) (string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", nil
	}
	if strings.Contains(cell, "/") {
		cell = ParseDOB(cell)
	}
	cell = strings.TrimSuffix(cell, ".0")
	if n, err := strconv.Atoi(cell); err == nil && n >= 0 && len(cell) < 6 {
		cell = padLeft(cell, 6)
	}
	if !IsValidDOB(cell) {
		return "", ErrInvalidDOB
	}
	return cell, nil
}

var appointmentLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
}

// ParseAppointmentDate parses a DOFA/DOPA/DOAN cell. Empty input yields nil.
func ParseAppointmentDate(cell string) (*time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	// Excel date serials, kept to a plausible range so bare years are not misread.
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		if serial >= 10000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				day := truncateDay(parsed)
				return &day, nil
			}
		}
		return nil, ErrInvalidDate
	}

	for _, layout := range appointmentLayouts {
		if parsed, err := time.Parse(layout, cell); err == nil {
			day := truncateDay(parsed)
			return &day, nil
		}
	}
	return nil, ErrInvalidDate
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
