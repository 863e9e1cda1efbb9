package application

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/serrors"
)

// Requirement is an active configured item (criterion, question or
// checklist entry) an application is checked against.
type Requirement struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

type CriteriaResult struct {
	Advanced bool          `json:"advanced"`
	Unmet    []Requirement `json:"unmet"`
	// NoneActive is set when nothing is configured, which never passes.
	NoneActive bool `json:"none_active"`
}

type QuestionsResult struct {
	Advanced   bool          `json:"advanced"`
	Answered   int           `json:"answered"`
	Required   int           `json:"required"`
	Active     int           `json:"active"`
	Unanswered []Requirement `json:"unanswered"`
}

type OnboardingResult struct {
	AllComplete bool          `json:"all_complete"`
	Completed   int           `json:"completed"`
	Total       int           `json:"total"`
	Pending     []Requirement `json:"pending"`
}

// RequiredAnswers is ceil(thresholdPct% of active).
func RequiredAnswers(active, thresholdPct int) int {
	return (active*thresholdPct + 99) / 100
}

// SubmitCriteria records the eligibility answers and advances to the
// questions step when every active criterion holds. Unmet criteria leave the
// status unchanged.
func (a Application) SubmitCriteria(values map[uuid.UUID]bool, active []Requirement) (Application, CriteriaResult, error) {
	if err := a.require(StatusCriteria); err != nil {
		return a, CriteriaResult{}, err
	}
	res := CriteriaResult{Unmet: []Requirement{}, NoneActive: len(active) == 0}
	for _, r := range active {
		if !values[r.ID] {
			res.Unmet = append(res.Unmet, r)
		}
	}
	stored := make(map[uuid.UUID]bool, len(values))
	for id, v := range values {
		stored[id] = v
	}
	a.criteria = stored
	if !res.NoneActive && len(res.Unmet) == 0 {
		a.status = StatusQuestions
		res.Advanced = true
	}
	return a.touched(), res, nil
}

// SubmitQuestions records which questions were answered and advances to
// onboarding once enough active questions are covered.
func (a Application) SubmitQuestions(answered []uuid.UUID, active []Requirement, thresholdPct int) (Application, QuestionsResult, error) {
	if err := a.require(StatusQuestions); err != nil {
		return a, QuestionsResult{}, err
	}
	set := idSet(answered)
	res := QuestionsResult{
		Active:     len(active),
		Required:   RequiredAnswers(len(active), thresholdPct),
		Unanswered: []Requirement{},
	}
	for _, r := range active {
		if _, ok := set[r.ID]; ok {
			res.Answered++
		} else {
			res.Unanswered = append(res.Unanswered, r)
		}
	}
	a.answeredQuestions = dedupe(answered)
	if res.Active > 0 && res.Answered >= res.Required {
		a.status = StatusOnboarding
		res.Advanced = true
	}
	return a.touched(), res, nil
}

// SubmitOnboarding records checklist progress and the applicant's linked
// identity. It never changes the status.
func (a Application) SubmitOnboarding(completed []uuid.UUID, discordID, discordName string, active []Requirement) (Application, OnboardingResult, error) {
	if err := a.require(StatusOnboarding); err != nil {
		return a, OnboardingResult{}, err
	}
	set := idSet(completed)
	res := OnboardingResult{Total: len(active), Pending: []Requirement{}}
	for _, r := range active {
		if _, ok := set[r.ID]; ok {
			res.Completed++
		} else {
			res.Pending = append(res.Pending, r)
		}
	}
	res.AllComplete = res.Total > 0 && res.Completed == res.Total
	a.completedChecklist = dedupe(completed)
	if id := strings.TrimSpace(discordID); id != "" {
		a.discordID = id
	}
	if name := strings.TrimSpace(discordName); name != "" {
		a.discordName = name
	}
	return a.touched(), res, nil
}

// Complete finalizes the application for the hired employee.
func (a Application) Complete(employeeID, by uuid.UUID, at time.Time) (Application, error) {
	if err := a.require(StatusOnboarding); err != nil {
		return a, err
	}
	if a.discordID == "" {
		return a, serrors.ValidationErrors{"discord_id": "external identity is not linked"}.AsError()
	}
	a.status = StatusCompleted
	a.employeeID = employeeID
	a.processedBy = by
	a.processedAt = &at
	return a.touched(), nil
}

func (a Application) Reject(reason string, by uuid.UUID, at time.Time) (Application, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return a, serrors.ValidationErrors{"reason": "is required"}.AsError()
	}
	if a.status.Terminal() {
		return a, ErrInvalidStateTransition.WithMessage("application is already %s", a.status)
	}
	a.status = StatusRejected
	a.rejectionReason = reason
	a.processedBy = by
	a.processedAt = &at
	return a.touched(), nil
}

// AttachIDCard stores a new ID card path and returns the one it replaces.
func (a Application) AttachIDCard(path string) (Application, string, error) {
	if a.status.Terminal() {
		return a, "", ErrInvalidStateTransition.WithMessage("application is already %s", a.status)
	}
	prev := a.idCardPath
	a.idCardPath = path
	return a.touched(), prev, nil
}

func (a Application) SetInvite(url string) (Application, error) {
	if err := a.require(StatusOnboarding); err != nil {
		return a, err
	}
	a.inviteURL = url
	return a.touched(), nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
