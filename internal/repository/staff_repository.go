package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffdesk/roster-service/internal/domain"
)

// rosterLockKey is the advisory lock that serializes roster writers across instances.
const rosterLockKey int64 = 0x5354414646

// StaffRepository is the roster store: fileno -> StaffRecord.
// Every method that writes more than one row is atomic.
type StaffRepository interface {
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffRecord, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.StaffRecord, error)
	GetByFileno(ctx context.Context, fileno string) (*domain.StaffRecord, error)
	Update(ctx context.Context, record *domain.StaffRecord) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	ReplaceAll(ctx context.Context, records []domain.StaffRecord) (int64, error)
	ApplyBatch(ctx context.Context, filenos []string, plan BatchPlan) error
}

// BatchWrite is the set of rows one ingest batch inserts and overwrites.
type BatchWrite struct {
	Insert []domain.StaffRecord
	Update []domain.StaffRecord
}

// BatchPlan decides a BatchWrite from the stored records matching the batch's file numbers.
// ApplyBatch reads those records and applies the plan under the roster write lock.
// An error from the plan aborts the batch with nothing written.
type BatchPlan func(existing map[string]*domain.StaffRecord) (BatchWrite, error)

// StaffFilter defines query params for roster listing. Zero Limit returns every row.
type StaffFilter struct {
	Search string
	Limit  int
	Offset int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository returns a Postgres-backed roster store.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, fileno, full_name, rank, station, dob, qualification, sex, state, lga,
               email, phone, conr, remark, dofa, dopa, doan, created_at, updated_at`

var copyColumns = []string{
	"fileno", "full_name", "rank", "station", "dob", "qualification", "sex", "state", "lga",
	"email", "phone", "conr", "remark", "dofa", "dopa", "doan",
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffRecord, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_records`
	args := []any{}

	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		query += fmt.Sprintf(" WHERE full_name ILIKE $%d OR fileno ILIKE $%d", len(args), len(args))
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StaffRecord{}
	for rows.Next() {
		var rec domain.StaffRecord
		if err := scanStaff(rows, &rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *staffRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_records`).Scan(&n)
	return n, err
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*domain.StaffRecord, error) {
	var rec domain.StaffRecord
	row := r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_records WHERE id=$1`, id)
	if err := scanStaff(row, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *staffRepository) GetByFileno(ctx context.Context, fileno string) (*domain.StaffRecord, error) {
	var rec domain.StaffRecord
	row := r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_records WHERE fileno=$1`, fileno)
	if err := scanStaff(row, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *staffRepository) Update(ctx context.Context, record *domain.StaffRecord) error {
	const query = `
        UPDATE staff_records
        SET full_name=$1, rank=$2, station=$3, dob=$4, qualification=$5, sex=$6, state=$7, lga=$8,
            email=$9, phone=$10, conr=$11, remark=$12, dofa=$13, dopa=$14, doan=$15, updated_at=NOW()
        WHERE id=$16
        RETURNING updated_at`

	return r.inWriteTx(ctx, func(tx pgx.Tx) error {
		args := append(updateArgs(record), record.ID)
		return tx.QueryRow(ctx, query, args...).Scan(&record.UpdatedAt)
	})
}

func (r *staffRepository) Delete(ctx context.Context, id int64) error {
	return r.inWriteTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM staff_records WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *staffRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.inWriteTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM staff_records`)
		if err != nil {
			return err
		}
		deleted = cmd.RowsAffected()
		return nil
	})
	return deleted, err
}

func (r *staffRepository) ReplaceAll(ctx context.Context, records []domain.StaffRecord) (int64, error) {
	var deleted int64
	err := r.inWriteTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM staff_records`)
		if err != nil {
			return err
		}
		deleted = cmd.RowsAffected()
		return copyRecords(ctx, tx, records)
	})
	return deleted, err
}

func (r *staffRepository) ApplyBatch(ctx context.Context, filenos []string, plan BatchPlan) error {
	return r.inWriteTx(ctx, func(tx pgx.Tx) error {
		existing, err := findByFilenos(ctx, tx, filenos)
		if err != nil {
			return err
		}
		write, err := plan(existing)
		if err != nil {
			return err
		}
		if err := copyRecords(ctx, tx, write.Insert); err != nil {
			return err
		}
		return updateRecords(ctx, tx, write.Update)
	})
}

func (r *staffRepository) inWriteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rosterLockKey); err != nil {
			return err
		}
		return fn(tx)
	})
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// findByFilenos locks the matched rows when q is a transaction.
func findByFilenos(ctx context.Context, q querier, filenos []string) (map[string]*domain.StaffRecord, error) {
	found := make(map[string]*domain.StaffRecord, len(filenos))
	if len(filenos) == 0 {
		return found, nil
	}

	rows, err := q.Query(ctx, `SELECT `+staffColumns+` FROM staff_records WHERE fileno = ANY($1) FOR UPDATE`, filenos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec := &domain.StaffRecord{}
		if err := scanStaff(rows, rec); err != nil {
			return nil, err
		}
		found[rec.Fileno] = rec
	}
	return found, rows.Err()
}

func updateRecords(ctx context.Context, tx pgx.Tx, records []domain.StaffRecord) error {
	const query = `
        UPDATE staff_records
        SET full_name=$1, rank=$2, station=$3, dob=$4, qualification=$5, sex=$6, state=$7, lga=$8,
            email=$9, phone=$10, conr=$11, remark=$12, dofa=$13, dopa=$14, doan=$15, updated_at=NOW()
        WHERE fileno=$16`

	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range records {
		args := append(updateArgs(&records[i]), records[i].Fileno)
		batch.Queue(query, args...)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range records {
		cmd, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return err
		}
		if cmd.RowsAffected() == 0 {
			_ = results.Close()
			return fmt.Errorf("fileno %s: %w", records[i].Fileno, pgx.ErrNoRows)
		}
	}
	return results.Close()
}

func copyRecords(ctx context.Context, tx pgx.Tx, records []domain.StaffRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"staff_records"}, copyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := &records[i]
			return []any{
				rec.Fileno, rec.FullName, rec.Rank, rec.Station, rec.DOB, rec.Qualification,
				rec.Sex, rec.State, rec.LGA, rec.Email, rec.Phone, rec.Conr, rec.Remark,
				rec.DOFA, rec.DOPA, rec.DOAN,
			}, nil
		}))
	return err
}

func updateArgs(rec *domain.StaffRecord) []any {
	return []any{
		rec.FullName, rec.Rank, rec.Station, rec.DOB, rec.Qualification, rec.Sex, rec.State, rec.LGA,
		rec.Email, rec.Phone, rec.Conr, rec.Remark, rec.DOFA, rec.DOPA, rec.DOAN,
	}
}

func scanStaff(row pgx.Row, rec *domain.StaffRecord) error {
	return row.Scan(
		&rec.ID,
		&rec.Fileno,
		&rec.FullName,
		&rec.Rank,
		&rec.Station,
		&rec.DOB,
		&rec.Qualification,
		&rec.Sex,
		&rec.State,
		&rec.LGA,
		&rec.Email,
		&rec.Phone,
		&rec.Conr,
		&rec.Remark,
		&rec.DOFA,
		&rec.DOPA,
		&rec.DOAN,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
