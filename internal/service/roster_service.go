package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/staffdesk/roster-service/internal/dates"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/policy"
	"github.com/staffdesk/roster-service/internal/repository"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

// RosterService handles reads and single-record writes on the roster.
// writeLock is held only around the store write; events are published after it is released.
type RosterService struct {
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	writeLock  *sync.Mutex
}

// RosterDependencies bundles requirements for roster service.
// WriteLock must be shared with IngestService so every roster writer is serialized.
type RosterDependencies struct {
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	WriteLock  *sync.Mutex
}

// UpdateResult describes an applied record update.
type UpdateResult struct {
	Record             *domain.StaffRecord
	Changed            []domain.Field
	CredentialsChanged bool
}

// NewRosterService constructs the service.
func NewRosterService(deps RosterDependencies) *RosterService {
	lock := deps.WriteLock
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &RosterService{
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		writeLock:  lock,
	}
}

// List returns records ordered by id.
func (s *RosterService) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffRecord, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}
	records, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// Export returns the whole roster in list order, ignoring any search filter.
func (s *RosterService) Export(ctx context.Context) ([]domain.StaffRecord, error) {
	return s.List(ctx, repository.StaffFilter{})
}

// Get loads a record by id.
func (s *RosterService) Get(ctx context.Context, id int64) (*domain.StaffRecord, error) {
	record, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "staff record", map[string]any{"id": id})
	}
	return record, nil
}

// Self loads the caller's own record.
func (s *RosterService) Self(ctx context.Context, identity domain.Identity) (*domain.StaffRecord, error) {
	if identity.Role != domain.RoleStaff || identity.Fileno == "" {
		return nil, apperrors.NewForbidden("staff account required")
	}
	record, err := s.staff.GetByFileno(ctx, identity.Fileno)
	if err != nil {
		return nil, notFoundOr(err, "staff record", map[string]any{"fileno": identity.Fileno})
	}
	return record, nil
}

// Update replaces every writable field of the record with id. The file number
// cannot change; a blank one in proposed means unchanged.
func (s *RosterService) Update(ctx context.Context, actor domain.Identity, id int64, proposed domain.StaffRecord) (*UpdateResult, error) {
	result, err := s.update(ctx, actor, id, proposed)
	if err != nil {
		return nil, err
	}
	s.publishUpdate(ctx, events.EventStaffRecordUpdated, actor, result)
	return result, nil
}

func (s *RosterService) update(ctx context.Context, actor domain.Identity, id int64, proposed domain.StaffRecord) (*UpdateResult, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	proposed.Fileno = strings.TrimSpace(proposed.Fileno)
	if proposed.Fileno == "" {
		proposed.Fileno = current.Fileno
	}
	if proposed.Fileno != current.Fileno {
		return nil, apperrors.NewConflict("file number cannot be changed", map[string]any{
			"fileno": current.Fileno,
		})
	}
	if strings.TrimSpace(proposed.FullName) == "" {
		return nil, apperrors.NewValidationError("full_name is required", map[string]any{"field": domain.FieldFullName})
	}
	if err := validateRecord(&proposed); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, current, &proposed)
}

// UpdateSelf applies a staff member's edit of their own record. The body carries
// the full record; only contact fields may differ from what is stored.
func (s *RosterService) UpdateSelf(ctx context.Context, identity domain.Identity, proposed domain.StaffRecord) (*UpdateResult, error) {
	result, err := s.updateSelf(ctx, identity, proposed)
	if err != nil {
		return nil, err
	}
	s.publishUpdate(ctx, events.EventStaffContactEdited, identity, result)
	return result, nil
}

func (s *RosterService) updateSelf(ctx context.Context, identity domain.Identity, proposed domain.StaffRecord) (*UpdateResult, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	current, err := s.Self(ctx, identity)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(proposed.Fileno) == "" {
		proposed.Fileno = current.Fileno
	}
	if err := validateRecord(&proposed); err != nil {
		return nil, err
	}
	return s.apply(ctx, identity, current, &proposed)
}

func (s *RosterService) apply(ctx context.Context, actor domain.Identity, current, proposed *domain.StaffRecord) (*UpdateResult, error) {
	changed, err := policy.Authorize(actor, current, proposed)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return &UpdateResult{Record: current}, nil
	}

	proposed.ID = current.ID
	proposed.CreatedAt = current.CreatedAt
	if err := s.staff.Update(ctx, proposed); err != nil {
		return nil, notFoundOr(err, "staff record", map[string]any{"id": current.ID})
	}

	result := &UpdateResult{Record: proposed, Changed: changed}
	for _, f := range changed {
		if f == domain.FieldDOB {
			result.CredentialsChanged = true
		}
	}
	return result, nil
}

func (s *RosterService) publishUpdate(ctx context.Context, eventType events.EventType, actor domain.Identity, result *UpdateResult) {
	if len(result.Changed) == 0 {
		return
	}
	fields := make([]string, 0, len(result.Changed))
	for _, f := range result.Changed {
		fields = append(fields, string(f))
	}
	s.publish(ctx, eventType, actor, events.StaffRecordPayload{
		RecordID:           result.Record.ID,
		Fileno:             result.Record.Fileno,
		Fields:             fields,
		CredentialsChanged: result.CredentialsChanged,
	})
}

// Delete removes one record.
func (s *RosterService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	current, err := s.delete(ctx, id)
	if err != nil {
		return err
	}
	s.publish(ctx, events.EventStaffRecordDeleted, actor, events.StaffRecordPayload{
		RecordID: current.ID,
		Fileno:   current.Fileno,
	})
	return nil
}

func (s *RosterService) delete(ctx context.Context, id int64) (*domain.StaffRecord, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.staff.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "staff record", map[string]any{"id": id})
	}
	return current, nil
}

// DeleteAll clears the roster and returns how many records were removed.
func (s *RosterService) DeleteAll(ctx context.Context, actor domain.Identity) (int64, error) {
	deleted, err := s.deleteAll(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventRosterCleared, actor, events.RosterClearedPayload{Deleted: deleted})
	return deleted, nil
}

func (s *RosterService) deleteAll(ctx context.Context) (int64, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	return s.staff.DeleteAll(ctx)
}

func (s *RosterService) publish(ctx context.Context, eventType events.EventType, actor domain.Identity, payload interface{}) {
	publish(ctx, s.dispatcher, eventType, actor, payload)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, eventType events.EventType, actor domain.Identity, payload interface{}) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     events.ActorFrom(actor),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func validateRecord(rec *domain.StaffRecord) error {
	rec.DOB = strings.TrimSpace(rec.DOB)
	if !dates.IsValidDOB(rec.DOB) {
		return apperrors.NewValidationError("dob must be six digits (YYMMDD)", map[string]any{"field": domain.FieldDOB})
	}
	rec.Email = strings.TrimSpace(rec.Email)
	if rec.Email != "" {
		if _, err := mail.ParseAddress(rec.Email); err != nil {
			return apperrors.NewValidationError("email is not a valid address", map[string]any{"field": domain.FieldEmail})
		}
	}
	rec.Phone = strings.TrimSpace(rec.Phone)
	return nil
}

func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}
