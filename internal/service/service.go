package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Notifier delivers messages to users over external channels. Delivery
// problems are reported in the result and never fail the caller.
type Notifier interface {
	SendTelegram(ctx context.Context, userID string, message string) domain.DeliveryResult
	SendEmail(ctx context.Context, userID string, templateKey string, data map[string]any, locale string) domain.DeliveryResult
	ShareContact(ctx context.Context, share domain.ContactShare) domain.DeliveryResult
}

// LinkGenerator builds auto-login links. The returned URL is opaque.
type LinkGenerator interface {
	Generate(userID string, channel string, destinationPath string) (string, error)
}

type Translator interface {
	Translate(key string, locale string) string
}

// WithdrawalQuota limits how often a professional may back out of accepted
// work.
type WithdrawalQuota interface {
	// Check returns apperrors.ErrWithdrawalQuotaExceeded when no withdrawal is
	// left in the current period.
	Check(ctx context.Context, professionalID string) error
	Record(ctx context.Context, professionalID string) error
}

// InviteEnqueuer schedules auto-invitations outside the request.
type InviteEnqueuer interface {
	EnqueueInvites(ctx context.Context, job domain.InviteJob) error
}

type BaseService struct {
	db  Transactor
	log *slog.Logger
}

func NewBaseService(db Transactor, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// requireID rejects ids that cannot name a stored row.
func requireID(id string, kind string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s with id '%s'", apperrors.ErrNotFound, kind, id)
	}

	return nil
}
