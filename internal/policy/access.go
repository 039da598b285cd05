// Package policy decides which roster records and fields an identity may read or write.
package policy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/staffdesk/roster-service/internal/domain"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

var staffWritable = map[domain.Field]struct{}{
	domain.FieldEmail: {},
	domain.FieldPhone: {},
}

// CanRead reports whether identity may see record.
func CanRead(identity domain.Identity, record *domain.StaffRecord) bool {
	switch identity.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return record != nil && identity.Fileno != "" && record.Fileno == identity.Fileno
	}
	return false
}

// CanWrite reports whether identity may change field on record.
func CanWrite(identity domain.Identity, record *domain.StaffRecord, field domain.Field) bool {
	switch identity.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		if !CanRead(identity, record) {
			return false
		}
		_, ok := staffWritable[field]
		return ok
	}
	return false
}

// Authorize checks every field that differs between current and proposed.
// It returns the changed fields when all of them are writable.
func Authorize(identity domain.Identity, current, proposed *domain.StaffRecord) ([]domain.Field, error) {
	if !CanRead(identity, current) {
		return nil, apperrors.NewForbidden("record not accessible")
	}
	changed := current.ChangedFields(proposed)
	var denied []string
	for _, f := range changed {
		if !CanWrite(identity, current, f) {
			denied = append(denied, string(f))
		}
	}
	if len(denied) > 0 {
		return nil, apperrors.NewDomainError("FORBIDDEN",
			fmt.Sprintf("not allowed to modify: %s", strings.Join(denied, ", ")),
			http.StatusForbidden, map[string]any{"fields": denied})
	}
	return changed, nil
}
