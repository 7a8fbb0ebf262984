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

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

type ReviewRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewReviewRepository(db *sqlx.DB, log *slog.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ReviewRepository) CountPendingReviews(ctx context.Context, customerID string) (int, error) {
	const op = "internal.repository.postgres.CountPendingReviews"

	stmt, args, err := r.sq.Select("COUNT(*)").
		From("tasks t").
		Where(sq.Eq{"t.customer_id": customerID, "t.status": domain.TaskStatusCompleted}).
		Where(sq.Expr("t.selected_professional_id IS NOT NULL")).
		Where(sq.Expr("NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.task_id = t.id AND rv.reviewer_id = t.customer_id)")).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build count query: %w", op, err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, stmt, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count pending reviews: %w", op, err)
	}

	return count, nil
}
