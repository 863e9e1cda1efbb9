package rank

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeams_CoverEveryLevelOnce(t *testing.T) {
	for level := MinLevel; level <= MaxLevel; level++ {
		count := 0
		for _, team := range Teams {
			if team.Contains(level) {
				count++
			}
		}
		assert.Equal(t, 1, count, "level %d", level)
		assert.NotEmpty(t, Name(level))
	}
	_, ok := TeamOf(0)
	assert.False(t, ok)
	_, ok = TeamOf(18)
	assert.False(t, ok)
}

func TestStep_Boundaries(t *testing.T) {
	_, err := Promote(MaxLevel)
	require.ErrorIs(t, err, ErrRankBoundary)
	_, err = Demote(MinLevel)
	require.ErrorIs(t, err, ErrRankBoundary)
	_, err = Promote(0)
	require.ErrorIs(t, err, ErrRankBoundary)

	for level := MinLevel; level < MaxLevel; level++ {
		tr, err := Promote(level)
		require.NoError(t, err)
		assert.Equal(t, level+1, tr.NewLevel)
		assert.Equal(t, Name(level+1), tr.NewRank)
	}
	for level := MinLevel + 1; level <= MaxLevel; level++ {
		tr, err := Demote(level)
		require.NoError(t, err)
		assert.Equal(t, level-1, tr.NewLevel)
	}
}

func TestStep_DetectsTeamChange(t *testing.T) {
	tr, err := Promote(5)
	require.NoError(t, err)
	assert.True(t, tr.TeamChanged)
	assert.Equal(t, "Green", tr.FromTeam.Name)
	assert.Equal(t, "Silver", tr.NewTeam.Name)
	assert.Equal(t, "Sergeant", tr.NewRank)

	tr, err = Promote(6)
	require.NoError(t, err)
	assert.False(t, tr.TeamChanged)

	tr, err = Demote(10)
	require.NoError(t, err)
	assert.True(t, tr.TeamChanged)
	assert.Equal(t, "Silver", tr.NewTeam.Name)
}

func TestAllocateBadge_LowestFree(t *testing.T) {
	silver, _ := TeamOf(6)

	badge, err := AllocateBadge(silver, []string{"S-01", "S-02", "S-03", "G-04", "GD-04"})
	require.NoError(t, err)
	assert.Equal(t, "S-04", badge)

	badge, err = AllocateBadge(silver, []string{"S-01", "S-03"})
	require.NoError(t, err)
	assert.Equal(t, "S-02", badge)

	badge, err = AllocateBadge(silver, nil)
	require.NoError(t, err)
	assert.Equal(t, "S-01", badge)
}

func TestAllocateBadge_Exhausted(t *testing.T) {
	white, _ := TeamOf(17)
	taken := make([]string, 0, white.Capacity())
	for n := white.BadgeMin; n <= white.BadgeMax; n++ {
		taken = append(taken, fmt.Sprintf("W-%02d", n))
	}
	_, err := AllocateBadge(white, taken)
	require.ErrorIs(t, err, ErrBadgeRangeExhausted)
}

func TestAllocateBadge_StaysInRange(t *testing.T) {
	for _, team := range Teams {
		var taken []string
		for i := 0; i < team.Capacity(); i++ {
			badge, err := AllocateBadge(team, taken)
			require.NoError(t, err)
			b, ok := ParseBadge(badge)
			require.True(t, ok)
			assert.Equal(t, team.Prefix, b.Prefix)
			assert.GreaterOrEqual(t, b.Number, team.BadgeMin)
			assert.LessOrEqual(t, b.Number, team.BadgeMax)
			assert.NotContains(t, taken, badge)
			taken = append(taken, badge)
		}
	}
}

func TestLevelOfAndDisplayName(t *testing.T) {
	level, err := LevelOf("junior officer")
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	_, err = LevelOf("Admiral")
	require.Error(t, err)

	assert.Equal(t, "[S-04] John Doe", DisplayName("S-04", " John Doe"))
	assert.Equal(t, "John", DisplayName("", "John"))
}
