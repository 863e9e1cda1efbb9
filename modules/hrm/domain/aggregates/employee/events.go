package employee

import (
	"github.com/google/uuid"
)

const (
	TopicHired       = "hrm.employee.hired"
	TopicRankChanged = "hrm.employee.rank_changed"
	TopicTerminated  = "hrm.employee.terminated"
	TopicUnitsSynced = "hrm.employee.units_synced"
)

type HiredEvent struct {
	EmployeeID  uuid.UUID `json:"employee_id"`
	DiscordID   string    `json:"discord_id"`
	DisplayName string    `json:"display_name"`
	BadgeNumber string    `json:"badge_number"`
	RankName    string    `json:"rank_name"`
	HiredBy     uuid.UUID `json:"hired_by"`
}

func (HiredEvent) Topic() string { return TopicHired }

type RankChangedEvent struct {
	EmployeeID  uuid.UUID `json:"employee_id"`
	DiscordID   string    `json:"discord_id"`
	DisplayName string    `json:"display_name"`
	FromLevel   int       `json:"from_level"`
	NewLevel    int       `json:"new_level"`
	NewRank     string    `json:"new_rank"`
	BadgeNumber string    `json:"badge_number"`
	TeamChanged bool      `json:"team_changed"`
	ChangedBy   uuid.UUID `json:"changed_by"`
}

func (RankChangedEvent) Topic() string { return TopicRankChanged }

// ProfileName is the "[BADGE] Name" string the profile handler pushes.
func (e RankChangedEvent) ProfileName() string {
	if e.BadgeNumber == "" {
		return e.DisplayName
	}
	return "[" + e.BadgeNumber + "] " + e.DisplayName
}

type TerminatedEvent struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	DiscordID    string    `json:"discord_id"`
	Reason       string    `json:"reason"`
	TerminatedBy uuid.UUID `json:"terminated_by"`
}

func (TerminatedEvent) Topic() string { return TopicTerminated }

type UnitsSyncedEvent struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	DiscordID  string    `json:"discord_id"`
	Added      []string  `json:"added"`
	Removed    []string  `json:"removed"`
	SyncedBy   uuid.UUID `json:"synced_by"`
}

func (UnitsSyncedEvent) Topic() string { return TopicUnitsSynced }
