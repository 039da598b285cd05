package domain

import "time"

// StaffRecord is one employee on the roster, keyed by Fileno.
type StaffRecord struct {
	ID            int64
	Fileno        string
	FullName      string
	Rank          string
	Station       string
	DOB           string
	Qualification string
	Sex           string
	State         string
	LGA           string
	Email         string
	Phone         string
	Conr          string
	Remark        string
	DOFA          *time.Time
	DOPA          *time.Time
	DOAN          *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Field names a writable attribute of a StaffRecord.
type Field string

const (
	FieldFileno        Field = "fileno"
	FieldFullName      Field = "full_name"
	FieldRank          Field = "rank"
	FieldStation       Field = "station"
	FieldDOB           Field = "dob"
	FieldQualification Field = "qualification"
	FieldSex           Field = "sex"
	FieldState         Field = "state"
	FieldLGA           Field = "lga"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldConr          Field = "conr"
	FieldRemark        Field = "remark"
	FieldDOFA          Field = "dofa"
	FieldDOPA          Field = "dopa"
	FieldDOAN          Field = "doan"
)

// RecordFields lists every writable field in column order.
var RecordFields = []Field{
	FieldFileno,
	FieldFullName,
	FieldRank,
	FieldStation,
	FieldDOB,
	FieldQualification,
	FieldSex,
	FieldState,
	FieldLGA,
	FieldEmail,
	FieldPhone,
	FieldConr,
	FieldRemark,
	FieldDOFA,
	FieldDOPA,
	FieldDOAN,
}

// IsDate reports whether the field holds a timestamp.
func (f Field) IsDate() bool {
	return f == FieldDOFA || f == FieldDOPA || f == FieldDOAN
}

// Value returns the field as a comparable string. Dates render as YYYY-MM-DD.
func (r *StaffRecord) Value(f Field) string {
	switch f {
	case FieldFileno:
		return r.Fileno
	case FieldFullName:
		return r.FullName
	case FieldRank:
		return r.Rank
	case FieldStation:
		return r.Station
	case FieldDOB:
		return r.DOB
	case FieldQualification:
		return r.Qualification
	case FieldSex:
		return r.Sex
	case FieldState:
		return r.State
	case FieldLGA:
		return r.LGA
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldConr:
		return r.Conr
	case FieldRemark:
		return r.Remark
	case FieldDOFA:
		return formatDay(r.DOFA)
	case FieldDOPA:
		return formatDay(r.DOPA)
	case FieldDOAN:
		return formatDay(r.DOAN)
	}
	return ""
}

// SetText assigns a non-date field. It is a no-op for date fields.
func (r *StaffRecord) SetText(f Field, value string) {
	switch f {
	case FieldFileno:
		r.Fileno = value
	case FieldFullName:
		r.FullName = value
	case FieldRank:
		r.Rank = value
	case FieldStation:
		r.Station = value
	case FieldDOB:
		r.DOB = value
	case FieldQualification:
		r.Qualification = value
	case FieldSex:
		r.Sex = value
	case FieldState:
		r.State = value
	case FieldLGA:
		r.LGA = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldConr:
		r.Conr = value
	case FieldRemark:
		r.Remark = value
	}
}

// SetDate assigns one of the appointment dates.
func (r *StaffRecord) SetDate(f Field, value *time.Time) {
	switch f {
	case FieldDOFA:
		r.DOFA = value
	case FieldDOPA:
		r.DOPA = value
	case FieldDOAN:
		r.DOAN = value
	}
}

// ChangedFields lists the fields whose values differ between r and other.
func (r *StaffRecord) ChangedFields(other *StaffRecord) []Field {
	var changed []Field
	for _, f := range RecordFields {
		if r.Value(f) != other.Value(f) {
			changed = append(changed, f)
		}
	}
	return changed
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
