package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/staffdesk/roster-service/internal/api/http/handlers"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/observability"
	"github.com/staffdesk/roster-service/internal/repository"
	"github.com/staffdesk/roster-service/internal/service"
)

const rosterCSV = "File No,Full Name,Rank,DOB,Email,Phone,DOFA\n" +
	"NECO/001,Ada Obi,Officer,810426,ada@x.org,0801,1998-08-11\n" +
	"NECO/002,Bola Ade,Clerk,900101,bola@x.org,0802,\n"

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		App:    config.AppConfig{Name: "roster-test", Version: "test"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 10, BcryptCost: 4, LoginAttemptsPerMinute: 5},
		Ingest: config.IngestConfig{MaxUploadBytes: 1 << 20, MaxRows: 100},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	staffRepo := repository.NewMemoryStaffRepository()
	revocations := auth.NewMemoryRevocations()
	dispatcher := events.NewInMemoryDispatcher(nil)
	auditService := service.NewAuditService(dispatcher, repository.NewMemoryAuditRepository(), logger, config.AuditConfig{})
	auditService.RegisterHandlers()
	lock := &sync.Mutex{}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		AdminRepo:   repository.NewMemoryAdminAccountRepository(),
		StaffRepo:   staffRepo,
		Revocations: revocations,
		Throttle:    auth.NewMemoryLoginThrottle(cfg.Auth.LoginAttemptsPerMinute),
		Logger:      logger,
	})
	require.NoError(t, authService.SeedAdmin(context.Background(), config.AdminConfig{Username: "registrar", Password: "s3cret"}))

	rosterService := service.NewRosterService(service.RosterDependencies{StaffRepo: staffRepo, Dispatcher: dispatcher, WriteLock: lock})
	ingestService := service.NewIngestService(service.IngestDependencies{
		StaffRepo: staffRepo, Dispatcher: dispatcher, Metrics: metrics, Logger: logger, WriteLock: lock, MaxRows: cfg.Ingest.MaxRows,
	})

	app := NewApp(cfg, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Roster:         handlers.NewRosterHandler(rosterService),
		Ingest:         handlers.NewIngestHandler(ingestService),
		Self:           handlers.NewSelfHandler(rosterService),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), staffRepo, revocations),
	})
	return &testServer{app: app, metrics: metrics}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	status, body := s.do(t, req, token)
	out := map[string]any{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &out)
	}
	return status, out
}

func (s *testServer) login(t *testing.T, username, password string) (int, map[string]any) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(nethttp.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, body := s.do(t, req, "")
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &out))
	return status, out
}

func (s *testServer) token(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.login(t, username, password)
	require.Equal(t, nethttp.StatusOK, status, body)
	return body["access_token"].(string)
}

func (s *testServer) upload(t *testing.T, token, path, filename, content string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := s.do(t, req, token)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(body, &out))
	return status, out
}

func (s *testServer) list(t *testing.T, token, query string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, "/api/admin/staff"+query, nil)
	status, body := s.do(t, req, token)
	require.Equal(t, nethttp.StatusOK, status, string(body))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func seeded(t *testing.T) (*testServer, string) {
	t.Helper()
	s := newTestServer(t)
	admin := s.token(t, "registrar", "s3cret")
	status, report := s.upload(t, admin, "/api/admin/upload", "roster.csv", rosterCSV)
	require.Equal(t, nethttp.StatusOK, status, report)
	return s, admin
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	status, body := s.login(t, "registrar", "s3cret")
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "admin", body["role"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])

	status, body = s.login(t, "registrar", "wrong")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect username or password", body["detail"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.doJSON(t, nethttp.MethodGet, "/api/admin/staff", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "missing authorization header", body["detail"])

	status, _ = s.doJSON(t, nethttp.MethodGet, "/api/staff/me", "not-a-jwt", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
}

func TestUploadListAndStaffLogin(t *testing.T) {
	s, admin := seeded(t)

	records := s.list(t, admin, "")
	require.Len(t, records, 2)
	assert.Equal(t, "NECO/001", records[0]["fileno"])
	assert.Equal(t, "1998-08-11 00:00:00", records[0]["dofa"])
	assert.Nil(t, records[1]["dofa"])

	assert.Len(t, s.list(t, admin, "?q=bola"), 1)

	staff := s.token(t, "NECO/001", "810426")
	status, me := s.doJSON(t, nethttp.MethodGet, "/api/staff/me", staff, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Ada Obi", me["full_name"])

	status, _ = s.doJSON(t, nethttp.MethodGet, "/api/admin/staff", staff, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, _ = s.doJSON(t, nethttp.MethodGet, "/api/staff/me", admin, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
}

func TestAppendConflictPolicy(t *testing.T) {
	s, admin := seeded(t)
	batch := "fileno,full_name,dob\nNECO/002,Impostor,700101\nNECO/003,Chi Eze,770315\n"

	status, body := s.upload(t, admin, "/api/admin/append", "more.csv", batch)
	assert.Equal(t, nethttp.StatusUnprocessableEntity, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "BATCH_REJECTED", errBody["code"])
	assert.Len(t, s.list(t, admin, ""), 2)

	status, body = s.upload(t, admin, "/api/admin/append?on_conflict=skip", "more.csv", batch)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.EqualValues(t, 1, body["inserted"])
	assert.EqualValues(t, 1, body["skipped"])

	records := s.list(t, admin, "")
	require.Len(t, records, 3)
	assert.Equal(t, "Bola Ade", records[1]["full_name"])
}

func TestBulkUpdateEndpoint(t *testing.T) {
	s, admin := seeded(t)

	status, body := s.upload(t, admin, "/api/admin/bulk-update", "update.csv", "fileno,phone\nNECO/002,0999\n")
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.EqualValues(t, 1, body["updated"])

	records := s.list(t, admin, "")
	assert.Equal(t, "0999", records[1]["phone"])
	assert.Equal(t, "bola@x.org", records[1]["email"])

	status, _ = s.upload(t, admin, "/api/admin/bulk-update?on_missing=maybe", "update.csv", "fileno,phone\nNECO/002,0999\n")
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	s, admin := seeded(t)

	status, body := s.upload(t, admin, "/api/admin/upload", "roster.pdf", "%PDF")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.NotEmpty(t, body["detail"])
	assert.Len(t, s.list(t, admin, ""), 2)
}

func TestExportCSV(t *testing.T) {
	s, admin := seeded(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/admin/staff/export?q=bola", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "staff_export_")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Equal(t,
		"fileno,phone,email\n\"NECO/001\",\"0801\",\"ada@x.org\"\n\"NECO/002\",\"0802\",\"bola@x.org\"",
		string(body))
}

func TestAdminUpdate(t *testing.T) {
	s, admin := seeded(t)
	records := s.list(t, admin, "")
	rec := records[0]
	path := "/api/admin/staff/" + jsonNumber(rec["id"])

	rec["fileno"] = "NECO/999"
	status, body := s.doJSON(t, nethttp.MethodPut, path, admin, rec)
	assert.Equal(t, nethttp.StatusConflict, status, body)

	rec["fileno"] = "NECO/001"
	rec["dob"] = "26/04/81"
	status, _ = s.doJSON(t, nethttp.MethodPut, path, admin, rec)
	assert.Equal(t, nethttp.StatusBadRequest, status)

	rec["dob"] = "810427"
	rec["rank"] = "Chief"
	status, body = s.doJSON(t, nethttp.MethodPut, path, admin, rec)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, true, body["credentials_changed"])
	assert.Equal(t, "Chief", body["rank"])

	status, _ = s.login(t, "NECO/001", "810426")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	s.token(t, "NECO/001", "810427")

	status, _ = s.doJSON(t, nethttp.MethodGet, "/api/admin/staff/9999", admin, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestSelfUpdate(t *testing.T) {
	s, _ := seeded(t)
	staff := s.token(t, "NECO/001", "810426")

	_, me := s.doJSON(t, nethttp.MethodGet, "/api/staff/me", staff, nil)
	me["email"] = "ada.obi@x.org"
	status, body := s.doJSON(t, nethttp.MethodPut, "/api/staff/me", staff, me)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, "ada.obi@x.org", body["email"])
	assert.Equal(t, false, body["credentials_changed"])

	me["rank"] = "Director"
	status, body = s.doJSON(t, nethttp.MethodPut, "/api/staff/me", staff, me)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Contains(t, body["detail"], "rank")
}

func TestDeleteEndpoints(t *testing.T) {
	s, admin := seeded(t)
	staff := s.token(t, "NECO/002", "900101")
	records := s.list(t, admin, "")

	status, _ := s.doJSON(t, nethttp.MethodDelete, "/api/admin/staff/"+jsonNumber(records[0]["id"]), admin, nil)
	assert.Equal(t, nethttp.StatusNoContent, status)

	status, body := s.doJSON(t, nethttp.MethodDelete, "/api/admin/staff/delete-all", admin, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.EqualValues(t, 1, body["deleted"])
	assert.Empty(t, s.list(t, admin, ""))

	status, _ = s.doJSON(t, nethttp.MethodGet, "/api/staff/me", staff, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status, "record gone")
}

func TestAuditTrail(t *testing.T) {
	s, admin := seeded(t)
	status, _ := s.doJSON(t, nethttp.MethodDelete, "/api/admin/staff/delete-all", admin, nil)
	require.Equal(t, nethttp.StatusOK, status)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/admin/audit?limit=10", nil)
	status, body := s.do(t, req, admin)
	require.Equal(t, nethttp.StatusOK, status)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "roster_cleared", entries[0]["event_type"])
	assert.Equal(t, "roster_replaced", entries[1]["event_type"])
	assert.Equal(t, "registrar", entries[1]["actor"])

	req = httptest.NewRequest(nethttp.MethodGet, "/api/admin/audit?limit=100000000", nil)
	status, body = s.do(t, req, admin)
	require.Equal(t, nethttp.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &entries))
	assert.Len(t, entries, 2)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "registrar", "s3cret")

	status, _ := s.doJSON(t, nethttp.MethodPost, "/api/auth/logout", admin, nil)
	assert.Equal(t, nethttp.StatusNoContent, status)

	status, body := s.doJSON(t, nethttp.MethodGet, "/api/admin/staff", admin, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "token revoked", body["detail"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.doJSON(t, nethttp.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "memory", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	status, body = s.doJSON(t, nethttp.MethodGet, "/metrics", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, "requests")

	status, body = s.doJSON(t, nethttp.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.NotEmpty(t, body["detail"])
}

func jsonNumber(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
