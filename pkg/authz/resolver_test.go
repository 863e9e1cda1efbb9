package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/pkg/serrors"
)

func newTestResolver(t *testing.T, mode Mode) *Resolver {
	t.Helper()
	root := filepath.Join("testdata")
	r, err := NewResolver(Config{
		ModelPath:    filepath.Join(root, "model.conf"),
		PolicyPath:   filepath.Join(root, "policy.csv"),
		FlagProvider: StaticMode(mode),
	})
	require.NoError(t, err)
	return r
}

func TestResolver_InheritsRolePermissions(t *testing.T) {
	r := newTestResolver(t, ModeEnforce)

	caps, err := r.Capabilities(context.Background(), []string{"HR"})
	require.NoError(t, err)

	assert.True(t, caps.Has(EmployeesPromote))
	assert.True(t, caps.Has(EmployeesRead), "inherited from officer")
	assert.False(t, caps.Has(TreasuryWithdraw))
	assert.NotContains(t, caps.List(), Permission("not.a.permission"))
}

func TestResolver_UnionOfRoles(t *testing.T) {
	r := newTestResolver(t, ModeEnforce)

	caps, err := r.Capabilities(context.Background(), []string{"hr", "instructor"})
	require.NoError(t, err)
	assert.True(t, caps.HasAny(AcademyConductExam))
	assert.True(t, caps.Has(ApplicationsProcess))
}

func TestResolver_WildcardGrantsAll(t *testing.T) {
	r := newTestResolver(t, ModeEnforce)

	caps, err := r.Capabilities(context.Background(), []string{"chief"})
	require.NoError(t, err)
	for _, p := range All() {
		assert.True(t, caps.Has(p), p)
	}
}

func TestResolver_UnknownRoleHasNothing(t *testing.T) {
	r := newTestResolver(t, ModeEnforce)

	actor, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "123", "Jane", []string{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, actor.Capabilities.List())

	err = actor.Require(EmployeesRead)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	code, _ := serrors.Code(err)
	assert.Equal(t, "PERMISSION_DENIED", code)
}

func TestResolver_HasRole(t *testing.T) {
	r := newTestResolver(t, ModeEnforce)
	assert.True(t, r.HasRole("chief"))
	assert.True(t, r.HasRole("Instructor"))
	assert.False(t, r.HasRole("janitor"))
}

func TestActor_ShadowModeLetsThrough(t *testing.T) {
	r := newTestResolver(t, ModeShadow)

	actor, err := r.Resolve(context.Background(), uuid.New(), uuid.New(), "", "", nil)
	require.NoError(t, err)
	require.NoError(t, actor.Require(TreasuryWithdraw))
}

func TestActor_RequireAny(t *testing.T) {
	actor := Actor{Capabilities: NewCapabilities(SanctionsRead), Mode: ModeEnforce}
	require.NoError(t, actor.RequireAny(SanctionsManage, SanctionsRead))
	require.Error(t, actor.RequireAny(SanctionsManage, SanctionsRevoke))
}

func TestFileFlagProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	p := NewFileFlagProvider(path, ModeShadow)
	assert.Equal(t, ModeShadow, p.Mode(), "missing file uses fallback")

	require.NoError(t, os.WriteFile(path, []byte("mode: disabled\n"), 0o644))
	assert.Equal(t, ModeDisabled, p.Mode())

	require.NoError(t, os.WriteFile(path, []byte("mode: bogus\n"), 0o644))
	assert.Equal(t, ModeEnforce, p.Mode())

	require.NoError(t, os.Remove(path))
	assert.Equal(t, ModeEnforce, p.Mode(), "last known mode survives file removal")
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission(" Treasury.Deposit ")
	require.True(t, ok)
	assert.Equal(t, TreasuryDeposit, p)

	_, ok = ParsePermission("treasury.steal")
	assert.False(t, ok)
}
