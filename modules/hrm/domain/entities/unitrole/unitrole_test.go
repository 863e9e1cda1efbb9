package unitrole

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func role(unit, label, ext string, base bool, order int) UnitRole {
	return UnitRole{ID: uuid.New(), Unit: unit, Label: label, ExternalID: ext, IsBase: base, SortOrder: order}
}

func TestGroup_BaseRoleFirstThenSortOrder(t *testing.T) {
	roles := []UnitRole{
		role("SWAT", "Operator", "r3", false, 2),
		role("SWAT", "Lead", "r2", false, 1),
		role("Air", "Pilot", "r5", false, 0),
		role("SWAT", "Member", "r1", true, 9),
		role("Air", "Member", "r4", true, 5),
	}
	units := Group(roles)
	assert.Len(t, units, 2)
	assert.Equal(t, "Air", units[0].Name)
	assert.Equal(t, []string{"Member", "Pilot"}, labels(units[0].Roles))
	assert.Equal(t, "SWAT", units[1].Name)
	assert.Equal(t, []string{"Member", "Lead", "Operator"}, labels(units[1].Roles))
}

func labels(rs []UnitRole) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Label)
	}
	return out
}

func TestDiff(t *testing.T) {
	a := role("SWAT", "Member", "a", true, 0)
	b := role("SWAT", "Lead", "b", false, 1)
	c := role("Air", "Member", "c", true, 0)
	managed := []UnitRole{a, b, c}

	add, remove := Diff([]string{"a", "b", "unmanaged"}, []UnitRole{a, c}, managed)
	assert.Equal(t, []string{"c"}, add)
	assert.Equal(t, []string{"b"}, remove)

	add, remove = Diff([]string{"a", "b", "unmanaged"}, nil, managed)
	assert.Empty(t, add)
	assert.Equal(t, []string{"a", "b"}, remove)

	add, remove = Diff(nil, []UnitRole{a}, managed)
	assert.Equal(t, []string{"a"}, add)
	assert.Empty(t, remove)
}
