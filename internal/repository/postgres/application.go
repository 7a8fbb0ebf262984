package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
)

var applicationColumns = []string{
	"id", "task_id", "professional_id", "proposed_price", "proposed_timeline", "message",
	"status", "rejection_reason", "withdrawal_reason", "created_at", "responded_at",
	"withdrawn_at", "updated_at",
}

var _ repository.ApplicationRepository = (*ApplicationRepository)(nil)

type ApplicationRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewApplicationRepository(db *sqlx.DB, log *slog.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ApplicationRepository) CreateApplication(ctx context.Context, tx *sqlx.Tx, app *domain.Application) error {
	const op = "internal.repository.postgres.CreateApplication"

	stmt, args, err := r.sq.Insert("applications").
		Columns(
			"id", "task_id", "professional_id", "proposed_price", "proposed_timeline",
			"message", "status", "created_at", "updated_at",
		).
		Values(
			app.ID, app.TaskID, app.ProfessionalID, app.ProposedPrice, app.ProposedTimeline,
			app.Message, app.Status, app.CreatedAt, app.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return &apperrors.DuplicateApplicationError{TaskID: app.TaskID, ProfessionalID: app.ProfessionalID}
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w: task '%s' or professional '%s'", op, apperrors.ErrNotFound, app.TaskID, app.ProfessionalID)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ApplicationRepository) GetApplicationByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Application, error) {
	const op = "internal.repository.postgres.GetApplicationByIDWithLock"

	stmt, args, err := r.sq.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var app domain.Application
	if err := tx.GetContext(ctx, &app, stmt, args...); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w: application with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get application with lock: %w", op, err)
	}

	return &app, nil
}

func (r *ApplicationRepository) FindActiveApplication(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error) {
	return r.findActiveApplication(ctx, tx, "internal.repository.postgres.FindActiveApplication", taskID, professionalID, false)
}

func (r *ApplicationRepository) FindActiveApplicationWithLock(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error) {
	return r.findActiveApplication(ctx, tx, "internal.repository.postgres.FindActiveApplicationWithLock", taskID, professionalID, true)
}

func (r *ApplicationRepository) findActiveApplication(ctx context.Context, tx *sqlx.Tx, op, taskID, professionalID string, lock bool) (*domain.Application, error) {
	q := r.sq.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"task_id": taskID, "professional_id": professionalID}).
		Where(sq.NotEq{"status": domain.ApplicationStatusWithdrawn})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var app domain.Application
	if err := tx.GetContext(ctx, &app, stmt, args...); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w: application of '%s' for task '%s'", op, apperrors.ErrNotFound, professionalID, taskID)
		}

		return nil, fmt.Errorf("%s: failed to find application: %w", op, err)
	}

	return &app, nil
}

func (r *ApplicationRepository) ChangeStatus(ctx context.Context, tx *sqlx.Tx, change domain.StatusChange) error {
	const op = "internal.repository.postgres.ChangeStatus"

	builder := r.sq.Update("applications").
		Set("status", change.To).
		Set("updated_at", change.At).
		Where(sq.Eq{"id": change.ApplicationID, "status": change.From})

	switch change.To {
	case domain.ApplicationStatusAccepted:
		builder = builder.Set("responded_at", change.At)
	case domain.ApplicationStatusRejected:
		builder = builder.Set("responded_at", change.At).Set("rejection_reason", change.Reason)
	case domain.ApplicationStatusWithdrawn:
		builder = builder.Set("withdrawn_at", change.At).Set("withdrawal_reason", change.Reason)
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		// another application of the task is already accepted
		if pqCode(err) == pqUniqueViolation {
			return fmt.Errorf("%s: %w: application '%s'", op, apperrors.ErrTaskNotOpen, change.ApplicationID)
		}

		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: application '%s' is no longer %s", op, apperrors.ErrApplicationNotPending, change.ApplicationID, change.From)
	}

	return nil
}
