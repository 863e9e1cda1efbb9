package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/domain/exam"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
)

type ExamDTO struct {
	EmployeeID uuid.UUID       `json:"employee_id" validate:"required"`
	Category   course.Category `json:"category" validate:"required,oneof=A B"`
	Passed     bool            `json:"passed"`
	Notes      string          `json:"notes" validate:"max=2000"`
}

type ExamService struct {
	exams      exam.Repository
	ranks      Ranks
	incentives IncentiveEmitter
	transactor composables.Transactor
}

func NewExamService(exams exam.Repository, ranks Ranks, incentives IncentiveEmitter, transactor composables.Transactor) *ExamService {
	return &ExamService{
		exams:      exams,
		ranks:      ranks,
		incentives: incentives,
		transactor: transactor,
	}
}

// ConductExam records an exam held by actor. The examiner earns the exam
// incentive whatever the outcome.
func (s *ExamService) ConductExam(ctx context.Context, actor authz.Actor, dto ExamDTO) (exam.Exam, error) {
	if err := actor.Require(authz.AcademyConductExam); err != nil {
		return exam.Exam{}, err
	}
	e, err := exam.New(dto.EmployeeID, actor.ID, dto.Category, dto.Passed, dto.Notes)
	if err != nil {
		return exam.Exam{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (exam.Exam, error) {
		if _, err := s.ranks.RankOf(txCtx, e.EmployeeID); err != nil {
			return exam.Exam{}, err
		}
		if err := s.exams.Create(txCtx, e); err != nil {
			return exam.Exam{}, err
		}
		label := fmt.Sprintf("Category %s exam", e.Category)
		if err := s.incentives.Emit(txCtx, payment.ExamConducted, actor.ID, label, e.ID.String()); err != nil {
			return exam.Exam{}, err
		}
		return e, nil
	})
}

// List returns exams newest first; uuid.Nil lists every employee.
func (s *ExamService) List(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) ([]exam.Exam, error) {
	if err := actor.Require(authz.AcademyRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]exam.Exam, error) {
		return s.exams.List(txCtx, employeeID)
	})
}
