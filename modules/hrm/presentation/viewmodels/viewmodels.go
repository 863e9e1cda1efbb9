package viewmodels

import (
	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/pkg/money"
)

type Employee struct {
	ID           string          `json:"id"`
	DiscordID    string          `json:"discord_id"`
	DisplayName  string          `json:"display_name"`
	ProfileName  string          `json:"profile_name"`
	RankLevel    int             `json:"rank_level"`
	RankName     string          `json:"rank_name"`
	Team         string          `json:"team"`
	BadgeNumber  string          `json:"badge_number,omitempty"`
	Status       string          `json:"status"`
	HiredAt      string          `json:"hired_at"`
	TerminatedAt string          `json:"terminated_at,omitempty"`
	Units        []unitrole.Unit `json:"units,omitempty"`
}

type EmployeePage struct {
	Items []Employee `json:"items"`
	Total int64      `json:"total"`
}

type SanctionComponent struct {
	Present   bool `json:"present"`
	Completed bool `json:"completed"`
}

type Sanction struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	Reason          string            `json:"reason"`
	Warning         SanctionComponent `json:"warning"`
	Fine            SanctionComponent `json:"fine"`
	FineAmount      *money.Amount     `json:"fine_amount,omitempty"`
	Measure         SanctionComponent `json:"measure"`
	MeasureText     string            `json:"measure_text,omitempty"`
	Status          string            `json:"status"`
	EffectiveStatus string            `json:"effective_status"`
	AllCompleted    bool              `json:"all_completed"`
	IssuedBy        string            `json:"issued_by"`
	ExpiresAt       string            `json:"expires_at,omitempty"`
	RevokedAt       string            `json:"revoked_at,omitempty"`
	CreatedAt       string            `json:"created_at"`
}
