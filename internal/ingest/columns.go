package ingest

import (
	"strings"

	"github.com/staffdesk/roster-service/internal/domain"
)

var headerAliases = map[string]domain.Field{
	"fileno":                      domain.FieldFileno,
	"file no":                     domain.FieldFileno,
	"file number":                 domain.FieldFileno,
	"file num":                    domain.FieldFileno,
	"staff file no":               domain.FieldFileno,
	"full name":                   domain.FieldFullName,
	"fullname":                    domain.FieldFullName,
	"name":                        domain.FieldFullName,
	"names":                       domain.FieldFullName,
	"staff name":                  domain.FieldFullName,
	"rank":                        domain.FieldRank,
	"designation":                 domain.FieldRank,
	"station":                     domain.FieldStation,
	"dob":                         domain.FieldDOB,
	"d o b":                       domain.FieldDOB,
	"date of birth":               domain.FieldDOB,
	"birth date":                  domain.FieldDOB,
	"qualification":               domain.FieldQualification,
	"qualifications":              domain.FieldQualification,
	"sex":                         domain.FieldSex,
	"gender":                      domain.FieldSex,
	"state":                       domain.FieldState,
	"state of origin":             domain.FieldState,
	"lga":                         domain.FieldLGA,
	"local government":            domain.FieldLGA,
	"local government area":       domain.FieldLGA,
	"email":                       domain.FieldEmail,
	"e mail":                      domain.FieldEmail,
	"email address":               domain.FieldEmail,
	"phone":                       domain.FieldPhone,
	"phone no":                    domain.FieldPhone,
	"phone number":                domain.FieldPhone,
	"gsm":                         domain.FieldPhone,
	"mobile":                      domain.FieldPhone,
	"conr":                        domain.FieldConr,
	"remark":                      domain.FieldRemark,
	"remarks":                     domain.FieldRemark,
	"dofa":                        domain.FieldDOFA,
	"date of first appointment":   domain.FieldDOFA,
	"dopa":                        domain.FieldDOPA,
	"date of present appointment": domain.FieldDOPA,
	"doan":                        domain.FieldDOAN,
}

// normalizeHeader folds case and punctuation so "File_No." and "file no" compare equal.
func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	header = strings.TrimPrefix(header, "\ufeff")
	header = strings.Map(func(r rune) rune {
		switch r {
		case '_', '.', '/', '-', '(', ')', ':':
			return ' '
		}
		return r
	}, header)
	return strings.Join(strings.Fields(header), " ")
}

// lookupColumn maps a raw header cell to a record field.
func lookupColumn(header string) (domain.Field, bool) {
	f, ok := headerAliases[normalizeHeader(header)]
	return f, ok
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
