package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/staffdesk/roster-service/internal/domain"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

type memoryStaffRepository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]*domain.StaffRecord
	byFileno map[string]int64
	now      func() time.Time
}

// NewMemoryStaffRepository returns a roster store held in process memory.
// Lookups that miss return pgx.ErrNoRows so callers treat both stores alike.
func NewMemoryStaffRepository() StaffRepository {
	return &memoryStaffRepository{
		byID:     make(map[int64]*domain.StaffRecord),
		byFileno: make(map[string]int64),
		now:      time.Now,
	}
}

func (r *memoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.sortedIDs()
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []domain.StaffRecord{}
	for _, id := range ids {
		rec := r.byID[id]
		if term != "" &&
			!strings.Contains(strings.ToLower(rec.FullName), term) &&
			!strings.Contains(strings.ToLower(rec.Fileno), term) {
			continue
		}
		result = append(result, *rec)
	}

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset > len(result) {
			offset = len(result)
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (r *memoryStaffRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *memoryStaffRepository) GetByID(_ context.Context, id int64) (*domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryStaffRepository) GetByFileno(_ context.Context, fileno string) (*domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byFileno[fileno]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *memoryStaffRepository) Update(_ context.Context, record *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[record.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.overwrite(existing, record)
	record.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *memoryStaffRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(r.byFileno, rec.Fileno)
	delete(r.byID, id)
	return nil
}

func (r *memoryStaffRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clear(), nil
}

func (r *memoryStaffRepository) ReplaceAll(_ context.Context, records []domain.StaffRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := checkUnique(records, nil); err != nil {
		return 0, err
	}
	deleted := r.clear()
	r.insert(records)
	return deleted, nil
}

func (r *memoryStaffRepository) ApplyBatch(_ context.Context, filenos []string, plan BatchPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[string]*domain.StaffRecord, len(filenos))
	for _, fileno := range filenos {
		if id, ok := r.byFileno[fileno]; ok {
			cp := *r.byID[id]
			existing[fileno] = &cp
		}
	}
	write, err := plan(existing)
	if err != nil {
		return err
	}

	if err := checkUnique(write.Insert, r.byFileno); err != nil {
		return err
	}
	for i := range write.Update {
		if _, ok := r.byFileno[write.Update[i].Fileno]; !ok {
			return fmt.Errorf("fileno %s: %w", write.Update[i].Fileno, pgx.ErrNoRows)
		}
	}
	r.insert(write.Insert)
	for i := range write.Update {
		r.overwrite(r.byID[r.byFileno[write.Update[i].Fileno]], &write.Update[i])
	}
	return nil
}

// overwrite copies every writable field except the key and identity columns.
func (r *memoryStaffRepository) overwrite(dst, src *domain.StaffRecord) {
	id, fileno, created := dst.ID, dst.Fileno, dst.CreatedAt
	*dst = *src
	dst.ID, dst.Fileno, dst.CreatedAt = id, fileno, created
	dst.UpdatedAt = r.now()
}

func (r *memoryStaffRepository) insert(records []domain.StaffRecord) {
	now := r.now()
	for i := range records {
		r.nextID++
		rec := records[i]
		rec.ID = r.nextID
		rec.CreatedAt = now
		rec.UpdatedAt = now
		r.byID[rec.ID] = &rec
		r.byFileno[rec.Fileno] = rec.ID
	}
}

func (r *memoryStaffRepository) clear() int64 {
	deleted := int64(len(r.byID))
	r.byID = make(map[int64]*domain.StaffRecord)
	r.byFileno = make(map[string]int64)
	return deleted
}

func (r *memoryStaffRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func checkUnique(records []domain.StaffRecord, existing map[string]int64) error {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		fileno := records[i].Fileno
		if _, ok := existing[fileno]; ok {
			return apperrors.NewConflict("fileno already exists", map[string]any{"fileno": fileno})
		}
		if _, ok := seen[fileno]; ok {
			return apperrors.NewConflict("fileno repeated in batch", map[string]any{"fileno": fileno})
		}
		seen[fileno] = struct{}{}
	}
	return nil
}
