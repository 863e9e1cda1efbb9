package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/serrors"
)

func TestConfigService_CRUD(t *testing.T) {
	f := newFixture(t)
	svc := f.configService()

	_, err := svc.Create(f.ctx, f.chief(), config.Kind("bogus"), ItemDTO{Label: "x"})
	require.ErrorIs(t, err, serrors.ErrValidation)

	second, err := svc.Create(f.ctx, f.chief(), config.KindQuestion, ItemDTO{Label: "Why us?", SortOrder: 2})
	require.NoError(t, err)
	first, err := svc.Create(f.ctx, f.chief(), config.KindQuestion, ItemDTO{Label: " Tell us about yourself ", SortOrder: 1})
	require.NoError(t, err)
	assert.True(t, first.Active)
	assert.Equal(t, "Tell us about yourself", first.Label)

	list, err := svc.List(f.ctx, f.actor(authz.ApplicationsRead), config.KindQuestion)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	none, err := svc.List(f.ctx, f.chief(), config.KindChecklist)
	require.NoError(t, err)
	assert.Empty(t, none)

	off := false
	updated, err := svc.Update(f.ctx, f.chief(), second.ID, ItemDTO{Label: "Why this department?", Active: &off, SortOrder: 0})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 0, updated.SortOrder)

	require.NoError(t, svc.Delete(f.ctx, f.chief(), first.ID))
	require.ErrorIs(t, svc.Delete(f.ctx, f.chief(), first.ID), config.ErrNotFound)
	_, err = svc.Update(f.ctx, f.chief(), uuid.New(), ItemDTO{Label: "x"})
	require.ErrorIs(t, err, config.ErrNotFound)
}

func TestConfigService_RequiresConfigurePermission(t *testing.T) {
	f := newFixture(t)
	svc := f.configService()
	reader := f.actor(authz.ApplicationsRead)

	_, err := svc.Create(f.ctx, reader, config.KindCriterion, ItemDTO{Label: "x"})
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	require.ErrorIs(t, svc.Delete(f.ctx, reader, uuid.New()), authz.ErrPermissionDenied)
	require.ErrorIs(t, svc.Unblacklist(f.ctx, reader, uuid.New()), authz.ErrPermissionDenied)

	_, err = svc.List(f.ctx, f.actor(), config.KindCriterion)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestConfigService_Unblacklist(t *testing.T) {
	f := newFixture(t)
	svc := f.configService()
	entry := blacklist.New("3001", "Jane Doe", "cheating", uuid.Nil, uuid.Nil, nil)
	require.NoError(t, f.blacklist.Create(f.ctx, entry))
	require.ErrorIs(t, f.blacklist.Create(f.ctx, blacklist.New("3001", "Jane", "dup", uuid.Nil, uuid.Nil, nil)), blacklist.ErrExists)

	require.NoError(t, svc.Unblacklist(f.ctx, f.chief(), entry.ID))
	entries, err := svc.Blacklist(f.ctx, f.chief())
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.ErrorIs(t, svc.Unblacklist(f.ctx, f.chief(), entry.ID), blacklist.ErrNotFound)
}
