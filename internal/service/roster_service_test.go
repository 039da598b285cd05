package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/repository"
)

func staffIdentity(fileno string) domain.Identity {
	return domain.Identity{Role: domain.RoleStaff, Username: fileno, Fileno: fileno}
}

func TestList_SearchAndPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, header,
		"NECO/001,Ada Obi,,810426,,",
		"NECO/002,Bola Ade,,900101,,",
		"FED/003,Ada Musa,,770315,,")

	all, err := f.roster.List(ctx, repository.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)

	hits, err := f.roster.List(ctx, repository.StaffFilter{Search: "ada"})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = f.roster.List(ctx, repository.StaffFilter{Search: "neco/"})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	page, err := f.roster.List(ctx, repository.StaffFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "NECO/002", page[0].Fileno)

	_, err = f.roster.List(ctx, repository.StaffFilter{Limit: -1})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	exported, err := f.roster.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, exported)
}

func TestUpdate_Admin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, header, "A1,Ada Obi,Officer,810426,ada@x.org,0801")
	current := f.byFileno(t, "A1")

	proposed := *current
	proposed.Rank = "Chief"
	proposed.DOB = "810427"
	result, err := f.roster.Update(ctx, adminIdentity, current.ID, proposed)
	require.NoError(t, err)
	assert.True(t, result.CredentialsChanged)
	assert.ElementsMatch(t, []domain.Field{domain.FieldRank, domain.FieldDOB}, result.Changed)
	assert.Equal(t, "Chief", f.byFileno(t, "A1").Rank)

	last := (*f.events)[len(*f.events)-1]
	assert.Equal(t, events.EventStaffRecordUpdated, last.Type)
}

func TestUpdate_AdminRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, header, "A1,Ada Obi,Officer,810426,,")
	current := f.byFileno(t, "A1")

	renamed := *current
	renamed.Fileno = "A9"
	_, err := f.roster.Update(ctx, adminIdentity, current.ID, renamed)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	badDOB := *current
	badDOB.DOB = "1981-04-26"
	_, err = f.roster.Update(ctx, adminIdentity, current.ID, badDOB)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	badEmail := *current
	badEmail.Email = "not-an-email"
	_, err = f.roster.Update(ctx, adminIdentity, current.ID, badEmail)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = f.roster.Update(ctx, adminIdentity, 9999, *current)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	assert.Equal(t, "810426", f.byFileno(t, "A1").DOB)
}

func TestUpdateSelf_ContactFieldsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, header, "A1,Ada Obi,Officer,810426,ada@x.org,0801", "A2,Bola Ade,Clerk,900101,,")
	me := staffIdentity("A1")

	current, err := f.roster.Self(ctx, me)
	require.NoError(t, err)

	proposed := *current
	proposed.Email = "ada.obi@x.org"
	proposed.Phone = "0809"
	result, err := f.roster.UpdateSelf(ctx, me, proposed)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Field{domain.FieldEmail, domain.FieldPhone}, result.Changed)
	assert.False(t, result.CredentialsChanged)

	stored := f.byFileno(t, "A1")
	assert.Equal(t, "ada.obi@x.org", stored.Email)
	assert.Equal(t, "Officer", stored.Rank)

	escalate := *stored
	escalate.Rank = "Director"
	escalate.Email = "other@x.org"
	_, err = f.roster.UpdateSelf(ctx, me, escalate)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
	assert.Equal(t, "ada.obi@x.org", f.byFileno(t, "A1").Email, "rejected update leaves record untouched")

	unchanged, err := f.roster.UpdateSelf(ctx, me, *stored)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Changed)

	_, err = f.roster.Self(ctx, adminIdentity)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestDeleteAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, header, "A1,Ada Obi,,810426,,", "A2,Bola Ade,,900101,,", "A3,Chi Eze,,770315,,")

	a1 := f.byFileno(t, "A1")
	require.NoError(t, f.roster.Delete(ctx, adminIdentity, a1.ID))
	assert.Equal(t, "NOT_FOUND", domainCode(t, f.roster.Delete(ctx, adminIdentity, a1.ID)))

	deleted, err := f.roster.DeleteAll(ctx, adminIdentity)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	records, err := f.roster.List(ctx, repository.StaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	last := (*f.events)[len(*f.events)-1]
	assert.Equal(t, events.EventRosterCleared, last.Type)
	assert.Equal(t, events.RosterClearedPayload{Deleted: 2}, last.Payload)
}
