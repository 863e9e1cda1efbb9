package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/domain/exam"
	"github.com/iota-uz/precinct/pkg/composables"
)

type PgExamRepository struct{}

func NewExamRepository() exam.Repository {
	return &PgExamRepository{}
}

func (r *PgExamRepository) List(ctx context.Context, employeeID uuid.UUID) ([]exam.Exam, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT id, employee_id, examiner_id, category, passed, notes, conducted_at
		FROM academy_exams WHERE tenant_id = $1 AND ($2::uuid IS NULL OR employee_id = $2)
		ORDER BY conducted_at DESC`, tenantID, nullUUID(employeeID))
	if err != nil {
		return nil, gerrors.Wrap(err, "list exams")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (exam.Exam, error) {
		var e exam.Exam
		var category string
		if err := row.Scan(&e.ID, &e.EmployeeID, &e.ExaminerID, &category, &e.Passed, &e.Notes, &e.ConductedAt); err != nil {
			return exam.Exam{}, err
		}
		e.Category = course.Category(category)
		return e, nil
	})
}

func (r *PgExamRepository) Create(ctx context.Context, e exam.Exam) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO academy_exams (id, tenant_id, employee_id, examiner_id, category, passed, notes, conducted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, tenantID, e.EmployeeID, e.ExaminerID, string(e.Category), e.Passed, e.Notes, e.ConductedAt)
	return gerrors.Wrap(err, "create exam")
}
