package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
)

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

type NotificationRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewNotificationRepository(db *sqlx.DB, log *slog.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *NotificationRepository) insert(n *domain.Notification) sq.InsertBuilder {
	return r.sq.Insert("notifications").
		Columns("id", "user_id", "type", "task_id", "title", "message", "created_at").
		Values(n.ID, n.UserID, n.Type, n.TaskID, n.Title, n.Message, n.CreatedAt)
}

func (r *NotificationRepository) CreateTaskInvitation(ctx context.Context, n *domain.Notification) (bool, error) {
	const op = "internal.repository.postgres.CreateTaskInvitation"

	stmt, args, err := r.insert(n).
		Suffix("ON CONFLICT (user_id, task_id) WHERE type = 'task_invitation' DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}

	return rowsAffected > 0, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const op = "internal.repository.postgres.CreateNotification"

	stmt, args, err := r.insert(n).ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *NotificationRepository) ListInvitedUserIDs(ctx context.Context, taskID string) ([]string, error) {
	const op = "internal.repository.postgres.ListInvitedUserIDs"

	stmt, args, err := r.sq.Select("user_id").
		From("notifications").
		Where(sq.Eq{"task_id": taskID, "type": domain.NotificationTaskInvitation}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, stmt, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select invited users: %w", op, err)
	}

	return ids, nil
}
