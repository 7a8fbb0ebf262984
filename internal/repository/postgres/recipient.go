package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
)

var _ repository.RecipientRepository = (*RecipientRepository)(nil)

type RecipientRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewRecipientRepository(db *sqlx.DB, log *slog.Logger) *RecipientRepository {
	return &RecipientRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetRecipient reads channel opt-outs from notification_settings; a missing
// key means the channel is enabled.
func (r *RecipientRepository) GetRecipient(ctx context.Context, userID string) (*domain.Recipient, error) {
	const op = "internal.repository.postgres.GetRecipient"

	stmt, args, err := r.sq.Select(
		"id", "full_name", "email", "phone", "telegram_chat_id", "preferred_language",
		"COALESCE((notification_settings->>'email')::boolean, TRUE) AS email_notifications",
		"COALESCE((notification_settings->>'telegram')::boolean, TRUE) AS telegram_notifications",
	).
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rec domain.Recipient
	if err := r.db.GetContext(ctx, &rec, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: user with id '%s'", op, apperrors.ErrNotFound, userID)
		}

		return nil, fmt.Errorf("%s: failed to get recipient: %w", op, err)
	}

	return &rec, nil
}
