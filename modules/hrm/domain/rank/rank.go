// Package rank holds the static rank ladder, the team bands laid over it and
// the badge number allocation rules. Everything here is pure.
package rank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iota-uz/precinct/pkg/serrors"
)

const (
	MinLevel   = 1
	MaxLevel   = 17
	EntryLevel = MinLevel
)

var (
	ErrRankBoundary        = serrors.NewError("RANK_BOUNDARY", "rank level is at the boundary", "Errors.RankBoundary")
	ErrBadgeRangeExhausted = serrors.NewError("BADGE_RANGE_EXHAUSTED", "no free badge number in team range", "Errors.BadgeRangeExhausted")
	ErrUnknownRank         = serrors.NewError("VALIDATION_FAILED", "unknown rank", "Errors.UnknownRank")
)

var names = [MaxLevel + 1]string{
	1:  "Cadet",
	2:  "Junior Officer",
	3:  "Officer",
	4:  "Senior Officer",
	5:  "Corporal",
	6:  "Sergeant",
	7:  "Staff Sergeant",
	8:  "Sergeant First Class",
	9:  "Master Sergeant",
	10: "Lieutenant",
	11: "First Lieutenant",
	12: "Captain",
	13: "Major",
	14: "Commander",
	15: "Deputy Chief",
	16: "Assistant Chief",
	17: "Chief of Police",
}

func Valid(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Name returns the rank name for level, or "" when level is out of range.
func Name(level int) string {
	if !Valid(level) {
		return ""
	}
	return names[level]
}

// LevelOf resolves a rank name, case-insensitively.
func LevelOf(name string) (int, error) {
	name = strings.TrimSpace(name)
	for level := MinLevel; level <= MaxLevel; level++ {
		if strings.EqualFold(names[level], name) {
			return level, nil
		}
	}
	return 0, ErrUnknownRank.WithTemplateData(map[string]string{"rank": name})
}

// Team is a contiguous band of levels sharing a badge prefix and range.
type Team struct {
	Name     string
	MinLevel int
	MaxLevel int
	Prefix   string
	BadgeMin int
	BadgeMax int
}

func (t Team) Contains(level int) bool {
	return level >= t.MinLevel && level <= t.MaxLevel
}

// Capacity is the number of badges the team can issue.
func (t Team) Capacity() int {
	return t.BadgeMax - t.BadgeMin + 1
}

// Teams is ordered by level and covers [MinLevel, MaxLevel] without gaps.
var Teams = []Team{
	{Name: "Green", MinLevel: 1, MaxLevel: 5, Prefix: "G", BadgeMin: 1, BadgeMax: 99},
	{Name: "Silver", MinLevel: 6, MaxLevel: 9, Prefix: "S", BadgeMin: 1, BadgeMax: 60},
	{Name: "Gold", MinLevel: 10, MaxLevel: 12, Prefix: "GD", BadgeMin: 1, BadgeMax: 30},
	{Name: "Red", MinLevel: 13, MaxLevel: 15, Prefix: "R", BadgeMin: 1, BadgeMax: 15},
	{Name: "White", MinLevel: 16, MaxLevel: 17, Prefix: "W", BadgeMin: 1, BadgeMax: 5},
}

// TeamOf returns the team for a valid level.
func TeamOf(level int) (Team, bool) {
	for _, t := range Teams {
		if t.Contains(level) {
			return t, true
		}
	}
	return Team{}, false
}

// Badge is a parsed badge number such as "S-04".
type Badge struct {
	Prefix string
	Number int
}

func (b Badge) String() string {
	return fmt.Sprintf("%s-%02d", b.Prefix, b.Number)
}

// ParseBadge splits "PREFIX-NN". Malformed values are reported as !ok.
func ParseBadge(s string) (Badge, bool) {
	prefix, num, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found || prefix == "" {
		return Badge{}, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return Badge{}, false
	}
	return Badge{Prefix: strings.ToUpper(prefix), Number: n}, true
}

// AllocateBadge returns the lowest number in team's range not present in
// taken. taken may hold badges of any team; only the team's prefix counts.
func AllocateBadge(team Team, taken []string) (string, error) {
	used := make(map[int]struct{}, len(taken))
	for _, raw := range taken {
		b, ok := ParseBadge(raw)
		if !ok || b.Prefix != team.Prefix {
			continue
		}
		used[b.Number] = struct{}{}
	}
	for n := team.BadgeMin; n <= team.BadgeMax; n++ {
		if _, ok := used[n]; !ok {
			return Badge{Prefix: team.Prefix, Number: n}.String(), nil
		}
	}
	return "", ErrBadgeRangeExhausted.WithTemplateData(map[string]string{
		"team":  team.Name,
		"range": fmt.Sprintf("%d-%d", team.BadgeMin, team.BadgeMax),
	})
}

// Transition is the outcome of moving one level up or down.
type Transition struct {
	FromLevel   int
	NewLevel    int
	NewRank     string
	FromTeam    Team
	NewTeam     Team
	TeamChanged bool
}

// Step computes level+delta where delta is +1 or -1.
func Step(level, delta int) (Transition, error) {
	next := level + delta
	if !Valid(level) || !Valid(next) {
		return Transition{}, ErrRankBoundary.WithTemplateData(map[string]string{
			"level": strconv.Itoa(level),
		})
	}
	from, _ := TeamOf(level)
	to, _ := TeamOf(next)
	return Transition{
		FromLevel:   level,
		NewLevel:    next,
		NewRank:     names[next],
		FromTeam:    from,
		NewTeam:     to,
		TeamChanged: from.Name != to.Name,
	}, nil
}

func Promote(level int) (Transition, error) { return Step(level, 1) }
func Demote(level int) (Transition, error)  { return Step(level, -1) }

// DisplayName formats the profile name shown on the external platform.
func DisplayName(badge, name string) string {
	name = strings.TrimSpace(name)
	if badge == "" {
		return name
	}
	return "[" + badge + "] " + name
}
