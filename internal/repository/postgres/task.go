package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
)

var taskColumns = []string{
	"id", "title", "description", "category", "subcategory", "city", "neighborhood",
	"budget_min", "budget_max", "budget_type", "status", "customer_id",
	"selected_professional_id", "applications_count", "completion_notes", "completion_photos",
	"created_at", "updated_at", "completed_at", "cancelled_at",
}

var (
	_ repository.TaskQueryRepository   = (*TaskRepository)(nil)
	_ repository.TaskCommandRepository = (*TaskRepository)(nil)
)

type TaskRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewTaskRepository(db *sqlx.DB, log *slog.Logger) *TaskRepository {
	return &TaskRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *TaskRepository) CreateTask(ctx context.Context, tx *sqlx.Tx, t *domain.Task) error {
	const op = "internal.repository.postgres.CreateTask"

	photos := t.CompletionPhotos
	if photos == nil {
		photos = pq.StringArray{}
	}

	stmt, args, err := r.sq.Insert("tasks").
		Columns(
			"id", "title", "description", "category", "subcategory", "city", "neighborhood",
			"budget_min", "budget_max", "budget_type", "status", "customer_id",
			"applications_count", "completion_photos", "created_at", "updated_at",
		).
		Values(
			t.ID, t.Title, t.Description, t.Category, t.Subcategory, t.City, t.Neighborhood,
			t.BudgetMin, t.BudgetMax, t.BudgetType, t.Status, t.CustomerID,
			t.ApplicationsCount, photos, t.CreatedAt, t.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("%s: %w: customer with id '%s'", op, apperrors.ErrNotFound, t.CustomerID)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *TaskRepository) GetTaskByID(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.Task, error) {
	const op = "internal.repository.postgres.GetTaskByID"

	stmt, args, err := r.sq.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var t domain.Task
	if err := sqlx.GetContext(ctx, ext, &t, stmt, args...); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w: task with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get task: %w", op, err)
	}

	return &t, nil
}

func (r *TaskRepository) GetTaskByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Task, error) {
	const op = "internal.repository.postgres.GetTaskByIDWithLock"

	stmt, args, err := r.sq.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var t domain.Task
	if err := tx.GetContext(ctx, &t, stmt, args...); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w: task with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get task with lock: %w", op, err)
	}

	return &t, nil
}

func (r *TaskRepository) StartTask(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string, at time.Time) error {
	const op = "internal.repository.postgres.StartTask"

	stmt, args, err := r.sq.Update("tasks").
		Set("status", domain.TaskStatusInProgress).
		Set("selected_professional_id", professionalID).
		Set("updated_at", at).
		Where(sq.Eq{"id": taskID, "status": domain.TaskStatusOpen}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	return r.execOne(ctx, tx, op, stmt, args, fmt.Errorf("%s: %w: task '%s'", op, apperrors.ErrTaskNotOpen, taskID))
}

func (r *TaskRepository) ReopenTask(ctx context.Context, tx *sqlx.Tx, taskID string, at time.Time) error {
	const op = "internal.repository.postgres.ReopenTask"

	stmt, args, err := r.sq.Update("tasks").
		Set("status", domain.TaskStatusOpen).
		Set("selected_professional_id", nil).
		Set("updated_at", at).
		Where(sq.Eq{"id": taskID, "status": domain.TaskStatusInProgress}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	return r.execOne(ctx, tx, op, stmt, args, fmt.Errorf("%s: %w: task '%s'", op, apperrors.ErrInvalidTaskStatus, taskID))
}

func (r *TaskRepository) CompleteTask(ctx context.Context, tx *sqlx.Tx, taskID string, notes *string, photos []string, at time.Time) error {
	const op = "internal.repository.postgres.CompleteTask"

	if photos == nil {
		photos = []string{}
	}

	stmt, args, err := r.sq.Update("tasks").
		Set("status", domain.TaskStatusCompleted).
		Set("completion_notes", notes).
		Set("completion_photos", pq.StringArray(photos)).
		Set("completed_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": taskID, "status": domain.TaskStatusInProgress}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	return r.execOne(ctx, tx, op, stmt, args, fmt.Errorf("%s: %w: task '%s'", op, apperrors.ErrInvalidTaskStatus, taskID))
}

func (r *TaskRepository) IncrementApplicationsCount(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	const op = "internal.repository.postgres.IncrementApplicationsCount"

	stmt, args, err := r.sq.Update("tasks").
		Set("applications_count", sq.Expr("applications_count + 1")).
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	return r.execOne(ctx, tx, op, stmt, args, fmt.Errorf("%s: %w: task with id '%s'", op, apperrors.ErrNotFound, taskID))
}

// execOne runs a single-row update and returns noRows when nothing matched.
func (r *TaskRepository) execOne(ctx context.Context, tx *sqlx.Tx, op, stmt string, args []interface{}, noRows error) error {
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return noRows
	}

	return nil
}
