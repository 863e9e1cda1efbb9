package viewmodels

import "github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"

type Application struct {
	ID                 string          `json:"id"`
	ApplicantName      string          `json:"applicant_name"`
	DiscordID          string          `json:"discord_id,omitempty"`
	DiscordName        string          `json:"discord_name,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Status             string          `json:"status"`
	Step               int             `json:"step"`
	Criteria           map[string]bool `json:"criteria"`
	AnsweredQuestions  []string        `json:"answered_questions"`
	CompletedChecklist []string        `json:"completed_checklist"`
	HasIDCard          bool            `json:"has_id_card"`
	InviteURL          string          `json:"invite_url,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	EmployeeID         string          `json:"employee_id,omitempty"`
	ProcessedBy        string          `json:"processed_by,omitempty"`
	ProcessedAt        string          `json:"processed_at,omitempty"`
	CreatedAt          string          `json:"created_at"`
}

type ApplicationPage struct {
	Items []Application `json:"items"`
	Total int64         `json:"total"`
}

// StepResult pairs the updated application with the step feedback.
type StepResult[T any] struct {
	Application Application `json:"application"`
	Result      T           `json:"result"`
}

type CriteriaResult = StepResult[application.CriteriaResult]
type QuestionsResult = StepResult[application.QuestionsResult]
type OnboardingResult = StepResult[application.OnboardingResult]
