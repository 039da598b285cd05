package dto

import (
	"time"

	"github.com/staffdesk/roster-service/internal/dates"
	"github.com/staffdesk/roster-service/internal/domain"
)

// timestampLayout is how appointment dates are rendered to clients.
const timestampLayout = "2006-01-02 15:04:05"

// StaffRecordRequest is the full record body accepted by admin and self updates.
type StaffRecordRequest struct {
	Fileno        string  `json:"fileno"`
	FullName      string  `json:"full_name"`
	Rank          string  `json:"rank"`
	Station       string  `json:"station"`
	DOB           string  `json:"dob"`
	Qualification string  `json:"qualification"`
	Sex           string  `json:"sex"`
	State         string  `json:"state"`
	LGA           string  `json:"lga"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Conr          string  `json:"conr"`
	Remark        string  `json:"remark"`
	DOFA          *string `json:"dofa"`
	DOPA          *string `json:"dopa"`
	DOAN          *string `json:"doan"`
}

// StaffRecordResponse is a roster record as returned to clients.
type StaffRecordResponse struct {
	ID            int64     `json:"id"`
	Fileno        string    `json:"fileno"`
	FullName      string    `json:"full_name"`
	Rank          string    `json:"rank"`
	Station       string    `json:"station"`
	DOB           string    `json:"dob"`
	Qualification string    `json:"qualification"`
	Sex           string    `json:"sex"`
	State         string    `json:"state"`
	LGA           string    `json:"lga"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Conr          string    `json:"conr"`
	Remark        string    `json:"remark"`
	DOFA          *string   `json:"dofa"`
	DOPA          *string   `json:"dopa"`
	DOAN          *string   `json:"doan"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StaffUpdateResponse is returned after an update. CredentialsChanged is set when
// the date of birth, which doubles as the staff password, was changed.
type StaffUpdateResponse struct {
	StaffRecordResponse
	ChangedFields      []string `json:"changed_fields"`
	CredentialsChanged bool     `json:"credentials_changed"`
}

// DeleteAllResponse reports how many records were removed.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// ToDomain converts the request into a record. It fails on unparseable dates.
func (r StaffRecordRequest) ToDomain() (domain.StaffRecord, *domain.Field, error) {
	rec := domain.StaffRecord{
		Fileno:        r.Fileno,
		FullName:      r.FullName,
		Rank:          r.Rank,
		Station:       r.Station,
		DOB:           r.DOB,
		Qualification: r.Qualification,
		Sex:           r.Sex,
		State:         r.State,
		LGA:           r.LGA,
		Email:         r.Email,
		Phone:         r.Phone,
		Conr:          r.Conr,
		Remark:        r.Remark,
	}
	for _, date := range []struct {
		field domain.Field
		value *string
	}{
		{domain.FieldDOFA, r.DOFA},
		{domain.FieldDOPA, r.DOPA},
		{domain.FieldDOAN, r.DOAN},
	} {
		if date.value == nil {
			continue
		}
		day, err := dates.ParseAppointmentDate(*date.value)
		if err != nil {
			field := date.field
			return domain.StaffRecord{}, &field, err
		}
		rec.SetDate(date.field, day)
	}
	return rec, nil, nil
}

// NewStaffRecordResponse maps a domain record.
func NewStaffRecordResponse(rec *domain.StaffRecord) StaffRecordResponse {
	return StaffRecordResponse{
		ID:            rec.ID,
		Fileno:        rec.Fileno,
		FullName:      rec.FullName,
		Rank:          rec.Rank,
		Station:       rec.Station,
		DOB:           rec.DOB,
		Qualification: rec.Qualification,
		Sex:           rec.Sex,
		State:         rec.State,
		LGA:           rec.LGA,
		Email:         rec.Email,
		Phone:         rec.Phone,
		Conr:          rec.Conr,
		Remark:        rec.Remark,
		DOFA:          formatTimestamp(rec.DOFA),
		DOPA:          formatTimestamp(rec.DOPA),
		DOAN:          formatTimestamp(rec.DOAN),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// NewStaffRecordList maps records in order. An empty roster renders as [].
func NewStaffRecordList(records []domain.StaffRecord) []StaffRecordResponse {
	out := make([]StaffRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, NewStaffRecordResponse(&records[i]))
	}
	return out
}

// NewStaffUpdateResponse maps an update result.
func NewStaffUpdateResponse(rec *domain.StaffRecord, changed []domain.Field, credentialsChanged bool) StaffUpdateResponse {
	fields := make([]string, 0, len(changed))
	for _, f := range changed {
		fields = append(fields, string(f))
	}
	return StaffUpdateResponse{
		StaffRecordResponse: NewStaffRecordResponse(rec),
		ChangedFields:       fields,
		CredentialsChanged:  credentialsChanged,
	}
}

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timestampLayout)
	return &s
}
