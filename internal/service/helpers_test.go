package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/observability"
	"github.com/staffdesk/roster-service/internal/repository"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

var (
	adminIdentity = domain.Identity{Role: domain.RoleAdmin, Username: "admin"}
)

type fixture struct {
	repo    repository.StaffRepository
	roster  *RosterService
	ingest  *IngestService
	metrics *observability.Metrics
	events  *[]events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryStaffRepository()
	dispatcher := events.NewInMemoryDispatcher(nil)
	var seen []events.Event
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			seen = append(seen, e)
			return nil
		})
	}
	lock := &sync.Mutex{}
	metrics := observability.NewMetrics()
	return &fixture{
		repo:    repo,
		roster:  NewRosterService(RosterDependencies{StaffRepo: repo, Dispatcher: dispatcher, WriteLock: lock}),
		ingest:  NewIngestService(IngestDependencies{StaffRepo: repo, Dispatcher: dispatcher, Metrics: metrics, WriteLock: lock, MaxRows: 1000}),
		metrics: metrics,
		events:  &seen,
	}
}

func csvInput(lines ...string) IngestInput {
	return IngestInput{Filename: "roster.csv", Body: strings.NewReader(strings.Join(lines, "\n"))}
}

func (f *fixture) load(t *testing.T, lines ...string) {
	t.Helper()
	_, err := f.ingest.ReplaceAll(context.Background(), adminIdentity, csvInput(lines...))
	require.NoError(t, err)
}

func (f *fixture) byFileno(t *testing.T, fileno string) *domain.StaffRecord {
	t.Helper()
	rec, err := f.repo.GetByFileno(context.Background(), fileno)
	require.NoError(t, err)
	return rec
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	return de.Code
}
