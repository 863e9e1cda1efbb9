package mappers

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/presentation/viewmodels"
)

func ApplicationToViewModel(a application.Application) viewmodels.Application {
	st := a.State()
	vm := viewmodels.Application{
		ID:                 st.ID.String(),
		ApplicantName:      st.ApplicantName,
		DiscordID:          st.DiscordID,
		DiscordName:        st.DiscordName,
		Notes:              st.Notes,
		Status:             string(st.Status),
		Step:               st.Status.Step(),
		Criteria:           make(map[string]bool, len(st.Criteria)),
		AnsweredQuestions:  idStrings(st.AnsweredQuestions),
		CompletedChecklist: idStrings(st.CompletedChecklist),
		HasIDCard:          st.IDCardPath != "",
		InviteURL:          st.InviteURL,
		RejectionReason:    st.RejectionReason,
		CreatedAt:          st.CreatedAt.Format(time.RFC3339),
	}
	for id, v := range st.Criteria {
		vm.Criteria[id.String()] = v
	}
	if st.EmployeeID != uuid.Nil {
		vm.EmployeeID = st.EmployeeID.String()
	}
	if st.ProcessedBy != uuid.Nil {
		vm.ProcessedBy = st.ProcessedBy.String()
	}
	if st.ProcessedAt != nil {
		vm.ProcessedAt = st.ProcessedAt.Format(time.RFC3339)
	}
	return vm
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
