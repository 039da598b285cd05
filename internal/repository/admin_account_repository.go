package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staffdesk/roster-service/internal/domain"
)

// AdminAccountRepository defines persistence access for administrator logins.
type AdminAccountRepository interface {
	Upsert(ctx context.Context, account *domain.AdminAccount) error
	GetByUsername(ctx context.Context, username string) (*domain.AdminAccount, error)
}

type adminAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAdminAccountRepository returns a Postgres-backed implementation.
func NewAdminAccountRepository(pool *pgxpool.Pool) AdminAccountRepository {
	return &adminAccountRepository{pool: pool}
}

func (r *adminAccountRepository) Upsert(ctx context.Context, account *domain.AdminAccount) error {
	const query = `
        INSERT INTO admin_accounts (username, password_hash)
        VALUES ($1, $2)
        ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *adminAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.AdminAccount, error) {
	const query = `
        SELECT id, username, password_hash, created_at, updated_at
        FROM admin_accounts WHERE username=$1`

	var account domain.AdminAccount
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

type memoryAdminAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.AdminAccount
}

// NewMemoryAdminAccountRepository keeps administrator logins in process memory.
func NewMemoryAdminAccountRepository() AdminAccountRepository {
	return &memoryAdminAccountRepository{accounts: make(map[string]domain.AdminAccount)}
}

func (r *memoryAdminAccountRepository) Upsert(_ context.Context, account *domain.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if existing, ok := r.accounts[account.Username]; ok {
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
	} else {
		account.ID = uuid.NewString()
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	r.accounts[account.Username] = *account
	return nil
}

func (r *memoryAdminAccountRepository) GetByUsername(_ context.Context, username string) (*domain.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}
