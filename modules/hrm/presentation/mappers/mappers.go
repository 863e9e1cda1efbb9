package mappers

import (
	"time"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
	"github.com/iota-uz/precinct/modules/hrm/presentation/viewmodels"
	"github.com/iota-uz/precinct/pkg/money"
)

func EmployeeToViewModel(e employee.Employee) viewmodels.Employee {
	vm := viewmodels.Employee{
		ID:          e.ID().String(),
		DiscordID:   e.DiscordID(),
		DisplayName: e.DisplayName(),
		ProfileName: e.ProfileName(),
		RankLevel:   e.RankLevel(),
		RankName:    e.RankName(),
		Team:        e.Team().Name,
		BadgeNumber: e.BadgeNumber(),
		Status:      string(e.Status()),
		HiredAt:     e.HiredAt().Format(time.RFC3339),
	}
	if at := e.TerminatedAt(); at != nil {
		vm.TerminatedAt = at.Format(time.RFC3339)
	}
	return vm
}

func SanctionToViewModel(s sanction.Sanction, now time.Time) viewmodels.Sanction {
	st := s.State()
	vm := viewmodels.Sanction{
		ID:              st.ID.String(),
		EmployeeID:      st.EmployeeID.String(),
		Reason:          st.Reason,
		Warning:         viewmodels.SanctionComponent{Present: st.HasWarning, Completed: st.WarningCompleted},
		Fine:            viewmodels.SanctionComponent{Present: st.HasFine, Completed: st.FineCompleted},
		Measure:         viewmodels.SanctionComponent{Present: st.HasMeasure, Completed: st.MeasureCompleted},
		MeasureText:     st.MeasureText,
		Status:          string(st.Status),
		EffectiveStatus: string(s.EffectiveStatus(now)),
		AllCompleted:    s.AllComponentsCompleted(),
		IssuedBy:        st.IssuedBy.String(),
		CreatedAt:       st.CreatedAt.Format(time.RFC3339),
	}
	if st.HasFine {
		amount := money.NewAmount(st.FineAmount)
		vm.FineAmount = &amount
	}
	if st.ExpiresAt != nil {
		vm.ExpiresAt = st.ExpiresAt.Format(time.RFC3339)
	}
	if st.RevokedAt != nil {
		vm.RevokedAt = st.RevokedAt.Format(time.RFC3339)
	}
	return vm
}
