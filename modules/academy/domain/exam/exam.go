// Package exam records academy exams and who conducted them.
package exam

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type Exam struct {
	ID          uuid.UUID       `json:"id"`
	EmployeeID  uuid.UUID       `json:"employee_id"`
	ExaminerID  uuid.UUID       `json:"examiner_id"`
	Category    course.Category `json:"category"`
	Passed      bool            `json:"passed"`
	Notes       string          `json:"notes,omitempty"`
	ConductedAt time.Time       `json:"conducted_at"`
}

func New(employeeID, examinerID uuid.UUID, category course.Category, passed bool, notes string) (Exam, error) {
	verrs := serrors.ValidationErrors{}
	if !category.Valid() {
		verrs["category"] = "must be A or B"
	}
	if employeeID == uuid.Nil {
		verrs["employee_id"] = "is required"
	}
	if employeeID == examinerID {
		verrs["examiner_id"] = "cannot examine yourself"
	}
	if err := verrs.AsError(); err != nil {
		return Exam{}, err
	}
	return Exam{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		ExaminerID:  examinerID,
		Category:    category,
		Passed:      passed,
		Notes:       strings.TrimSpace(notes),
		ConductedAt: time.Now(),
	}, nil
}

type Repository interface {
	List(ctx context.Context, employeeID uuid.UUID) ([]Exam, error)
	Create(ctx context.Context, e Exam) error
}
