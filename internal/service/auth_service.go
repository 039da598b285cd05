package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/repository"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

const invalidCredentials = "Incorrect username or password"

// AuthService coordinates login, logout and admin seeding.
type AuthService struct {
	admins     repository.AdminAccountRepository
	staff      repository.StaffRepository
	tokenMgr   *auth.TokenManager
	revoked    auth.Revocations
	throttle   auth.LoginThrottle
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	AdminRepo   repository.AdminAccountRepository
	StaffRepo   repository.StaffRepository
	Revocations auth.Revocations
	Throttle    auth.LoginThrottle
	Logger      *zap.Logger
}

// LoginResult carries an issued access token.
type LoginResult struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:     deps.AdminRepo,
		staff:      deps.StaffRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		revoked:    deps.Revocations,
		throttle:   deps.Throttle,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// Login authenticates either an administrator or a staff member.
// Administrator accounts are checked first; otherwise username is a file number
// and password must equal that record's date of birth.
func (s *AuthService) Login(ctx context.Context, username, password, client string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, client)
		if err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		} else if !allowed {
			return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
		}
	}

	identity, err := s.authenticate(ctx, username, password)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "UNAUTHORIZED" {
			s.recordFailure(ctx, client)
		}
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, client); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(*identity)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Identity: *identity, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	account, err := s.admins.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if auth.ComparePassword(account.PasswordHash, password) == nil {
			return &domain.Identity{Role: domain.RoleAdmin, Username: account.Username}, nil
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.MapError(err)
	}

	record, err := s.staff.GetByFileno(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, apperrors.MapError(err)
	}
	if !auth.MatchDOB(record.DOB, password) {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	return &domain.Identity{Role: domain.RoleStaff, Username: record.Fileno, Fileno: record.Fileno}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, client string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, client); err != nil {
		s.logger.Warn("login throttle update failed", zap.Error(err))
	}
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoked == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// SeedAdmin creates or refreshes the configured administrator account.
func (s *AuthService) SeedAdmin(ctx context.Context, cfg config.AdminConfig) error {
	username := strings.TrimSpace(cfg.Username)
	if username == "" || (cfg.Password == "" && cfg.PasswordHash == "") {
		s.logger.Warn("no administrator credentials configured; admin login disabled")
		return nil
	}

	hash := cfg.PasswordHash
	if hash == "" {
		var err error
		hash, err = auth.HashPassword(cfg.Password, s.bcryptCost)
		if err != nil {
			return err
		}
	}

	account := &domain.AdminAccount{Username: username, PasswordHash: hash}
	if err := s.admins.Upsert(ctx, account); err != nil {
		return err
	}
	s.logger.Info("administrator account ready", zap.String("username", username))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
