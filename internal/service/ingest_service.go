package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/ingest"
	"github.com/staffdesk/roster-service/internal/observability"
	"github.com/staffdesk/roster-service/internal/repository"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

// IngestService applies uploaded roster files in one of three modes.
type IngestService struct {
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	writeLock  *sync.Mutex
	maxRows    int
}

// IngestDependencies bundles requirements for ingest service.
type IngestDependencies struct {
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	WriteLock  *sync.Mutex
	MaxRows    int
}

// IngestOptions relaxes the default reject-the-batch behavior.
type IngestOptions struct {
	// SkipExisting makes append skip rows whose file number is already stored.
	SkipExisting bool
	// SkipMissing makes bulk-update skip rows whose file number is not stored.
	SkipMissing bool
}

// IngestInput is one uploaded file.
type IngestInput struct {
	Filename string
	Body     io.Reader
	Options  IngestOptions
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	lock := deps.WriteLock
	if lock == nil {
		lock = &sync.Mutex{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		writeLock:  lock,
		maxRows:    deps.MaxRows,
	}
}

// ReplaceAll clears the roster and loads every row of the file.
func (s *IngestService) ReplaceAll(ctx context.Context, actor domain.Identity, in IngestInput) (*domain.IngestReport, error) {
	return s.run(ctx, actor, domain.IngestReplaceAll, in)
}

// Append adds rows whose file number is not yet on the roster.
func (s *IngestService) Append(ctx context.Context, actor domain.Identity, in IngestInput) (*domain.IngestReport, error) {
	return s.run(ctx, actor, domain.IngestAppend, in)
}

// BulkUpdate rewrites the columns present in the file on existing records.
func (s *IngestService) BulkUpdate(ctx context.Context, actor domain.Identity, in IngestInput) (*domain.IngestReport, error) {
	return s.run(ctx, actor, domain.IngestBulkUpdate, in)
}

func (s *IngestService) run(ctx context.Context, actor domain.Identity, mode domain.IngestMode, in IngestInput) (*domain.IngestReport, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	sheet, err := ingest.Parse(in.Body, in.Filename, s.maxRows)
	if err != nil {
		return nil, parseError(err)
	}
	if len(sheet.Rows) == 0 {
		return nil, apperrors.NewValidationError("file contains no data rows", nil)
	}

	report := &domain.IngestReport{
		BatchID:  uuid.NewString(),
		Mode:     mode,
		Received: len(sheet.Rows),
		Warnings: sheet.Warnings,
	}
	if mode == domain.IngestBulkUpdate && len(sheet.Columns) == 1 {
		return nil, apperrors.NewValidationError("file has no columns to update besides the file number", nil)
	}

	rows, issues := sheet.Validate(mode != domain.IngestBulkUpdate)
	if len(issues) > 0 {
		return nil, rejectBatch(report, issues, "file contains invalid rows")
	}

	err = s.apply(ctx, mode, rows, report, in.Options)
	if err != nil {
		s.logger.Warn("ingest batch failed",
			zap.String("batch_id", report.BatchID),
			zap.String("mode", string(mode)),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordIngest(string(mode), report.Inserted+report.Updated)
	s.logger.Info("ingest batch applied",
		zap.String("batch_id", report.BatchID),
		zap.String("mode", string(mode)),
		zap.String("filename", in.Filename),
		zap.Int("received", report.Received),
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("skipped", report.Skipped))

	publish(ctx, s.dispatcher, ingestEventType(mode), actor, events.IngestPayload{
		BatchID:  report.BatchID,
		Filename: in.Filename,
		Received: report.Received,
		Inserted: report.Inserted,
		Updated:  report.Updated,
		Deleted:  int64(report.Deleted),
		Skipped:  report.Skipped,
	})
	return report, nil
}

// apply writes the batch holding the roster write lock. Events are published by
// the caller after the lock is released.
func (s *IngestService) apply(ctx context.Context, mode domain.IngestMode, rows []ingest.Row, report *domain.IngestReport, opts IngestOptions) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	switch mode {
	case domain.IngestReplaceAll:
		return s.replaceAll(ctx, rows, report)
	case domain.IngestAppend:
		return s.append(ctx, rows, report, opts.SkipExisting)
	case domain.IngestBulkUpdate:
		return s.bulkUpdate(ctx, rows, report, opts.SkipMissing)
	}
	return fmt.Errorf("unknown ingest mode %q", mode)
}

func (s *IngestService) replaceAll(ctx context.Context, rows []ingest.Row, report *domain.IngestReport) error {
	records, err := buildRecords(rows)
	if err != nil {
		return err
	}
	deleted, err := s.staff.ReplaceAll(ctx, records)
	if err != nil {
		return err
	}
	report.Deleted = int(deleted)
	report.Inserted = len(records)
	return nil
}

func (s *IngestService) append(ctx context.Context, rows []ingest.Row, report *domain.IngestReport, skipExisting bool) error {
	return s.staff.ApplyBatch(ctx, filenos(rows), func(existing map[string]*domain.StaffRecord) (repository.BatchWrite, error) {
		fresh := make([]ingest.Row, 0, len(rows))
		var issues []domain.RowIssue
		for _, row := range rows {
			if _, ok := existing[row.Fileno()]; ok {
				issues = append(issues, domain.RowIssue{Line: row.Line, Fileno: row.Fileno(), Reason: "file number already exists"})
				continue
			}
			fresh = append(fresh, row)
		}
		if len(issues) > 0 && !skipExisting {
			return repository.BatchWrite{}, rejectBatch(report, issues, "file contains file numbers that already exist")
		}

		records, err := buildRecords(fresh)
		if err != nil {
			return repository.BatchWrite{}, err
		}
		report.Inserted = len(records)
		report.Skipped = len(issues)
		report.Issues = issues
		return repository.BatchWrite{Insert: records}, nil
	})
}

func (s *IngestService) bulkUpdate(ctx context.Context, rows []ingest.Row, report *domain.IngestReport, skipMissing bool) error {
	return s.staff.ApplyBatch(ctx, filenos(rows), func(existing map[string]*domain.StaffRecord) (repository.BatchWrite, error) {
		var (
			issues    []domain.RowIssue
			changed   []domain.StaffRecord
			unchanged int
		)
		for _, row := range rows {
			current, ok := existing[row.Fileno()]
			if !ok {
				issues = append(issues, domain.RowIssue{Line: row.Line, Fileno: row.Fileno(), Reason: "file number not found"})
				continue
			}
			next := *current
			if err := ingest.Apply(row, &next, true); err != nil {
				issues = append(issues, domain.RowIssue{Line: row.Line, Fileno: row.Fileno(), Reason: err.Error()})
				continue
			}
			if len(current.ChangedFields(&next)) == 0 {
				unchanged++
				continue
			}
			changed = append(changed, next)
		}
		if len(issues) > 0 && !skipMissing {
			return repository.BatchWrite{}, rejectBatch(report, issues, "file contains file numbers that do not exist")
		}

		report.Updated = len(changed)
		report.Unchanged = unchanged
		report.Skipped = len(issues)
		report.Issues = issues
		return repository.BatchWrite{Update: changed}, nil
	})
}

func buildRecords(rows []ingest.Row) ([]domain.StaffRecord, error) {
	records := make([]domain.StaffRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := ingest.NewRecord(row)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d: %v", row.Line, err), nil)
		}
		records = append(records, *rec)
	}
	return records, nil
}

func filenos(rows []ingest.Row) []string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Fileno())
	}
	return keys
}

func rejectBatch(report *domain.IngestReport, issues []domain.RowIssue, message string) error {
	list := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		list = append(list, map[string]any{
			"line":   issue.Line,
			"fileno": issue.Fileno,
			"reason": issue.Reason,
		})
	}
	return apperrors.NewBatchRejected(message, map[string]any{
		"batch_id": report.BatchID,
		"mode":     report.Mode,
		"issues":   list,
	})
}

func parseError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrMissingFilenoColumn),
		errors.Is(err, ingest.ErrTooManyRows):
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return apperrors.NewValidationError("could not read file", map[string]any{"reason": err.Error()})
}

func ingestEventType(mode domain.IngestMode) events.EventType {
	switch mode {
	case domain.IngestAppend:
		return events.EventRosterAppended
	case domain.IngestBulkUpdate:
		return events.EventRosterBulkUpdated
	}
	return events.EventRosterReplaced
}
