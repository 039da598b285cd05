package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/repository"
)

func newAuthFixture(t *testing.T) (*fixture, *AuthService, *auth.MemoryRevocations) {
	t.Helper()
	f := newFixture(t)
	f.load(t, header, "A1,Ada Obi,Officer,810426,,", "admin,Clerk Named Admin,,900101,,")

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 10, BcryptCost: 4}}
	revoked := auth.NewMemoryRevocations()
	svc := NewAuthService(cfg, AuthDependencies{
		AdminRepo:   repository.NewMemoryAdminAccountRepository(),
		StaffRepo:   f.repo,
		Revocations: revoked,
		Throttle:    auth.NewMemoryLoginThrottle(3),
	})
	require.NoError(t, svc.SeedAdmin(context.Background(), config.AdminConfig{Username: "registrar", Password: "s3cret"}))
	return f, svc, revoked
}

func TestLogin_Admin(t *testing.T) {
	_, svc, _ := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "registrar", "s3cret", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.Identity.Role)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLogin_StaffUsesDOB(t *testing.T) {
	_, svc, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, " A1 ", "810426", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{Role: domain.RoleStaff, Username: "A1", Fileno: "A1"}, result.Identity)

	_, err = svc.Login(ctx, "A1", "26/04/81", "127.0.0.1")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, err = svc.Login(ctx, "nobody", "810426", "127.0.0.2")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestLogin_NeverInfersAdminFromUsername(t *testing.T) {
	_, svc, _ := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "admin", "900101", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, result.Identity.Role)
}

func TestLogin_Throttled(t *testing.T) {
	_, svc, _ := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "A1", "000000", "10.1.1.1")
		assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
	}
	_, err := svc.Login(ctx, "A1", "810426", "10.1.1.1")
	assert.Equal(t, "RATE_LIMITED", domainCode(t, err))

	_, err = svc.Login(ctx, "A1", "810426", "10.1.1.2")
	assert.NoError(t, err)
}

func TestLogout_RevokesToken(t *testing.T) {
	_, svc, revoked := newAuthFixture(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "A1", "810426", "127.0.0.1")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, isRevoked)
}

func TestSeedAdmin_PrehashedAndMissing(t *testing.T) {
	ctx := context.Background()
	admins := repository.NewMemoryAdminAccountRepository()
	svc := NewAuthService(config.Config{Auth: config.AuthConfig{JWTSecret: "test", BcryptCost: 4}}, AuthDependencies{
		AdminRepo: admins,
		StaffRepo: repository.NewMemoryStaffRepository(),
	})

	require.NoError(t, svc.SeedAdmin(ctx, config.AdminConfig{Username: "admin"}))
	_, err := admins.GetByUsername(ctx, "admin")
	assert.Error(t, err, "nothing seeded without credentials")

	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	require.NoError(t, svc.SeedAdmin(ctx, config.AdminConfig{Username: "admin", Password: "ignored", PasswordHash: hash}))

	_, err = svc.Login(ctx, "admin", "pw", "127.0.0.1")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "admin", "ignored", "127.0.0.1")
	assert.Error(t, err)
}
