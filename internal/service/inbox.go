package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

// inbox stores in-app notifications and mirrors them to Telegram. Both steps
// are best-effort: the state change that triggered them is already committed.
type inbox struct {
	log      *slog.Logger
	repo     repository.NotificationRepository
	notifier Notifier
	newID    func() string
	now      func() time.Time
}

func (b inbox) push(ctx context.Context, userID string, typ domain.NotificationType, taskID string, title, message string) {
	log := b.log.With(
		slog.String("user_id", userID),
		slog.String("type", string(typ)),
		slog.String("task_id", taskID),
	)

	n := &domain.Notification{
		ID:        b.newID(),
		UserID:    userID,
		Type:      typ,
		TaskID:    &taskID,
		Title:     title,
		Message:   message,
		CreatedAt: b.now().UTC(),
	}

	if err := b.repo.Create(ctx, n); err != nil {
		log.Error("failed to store notification", sl.Err(err))
	}

	res := b.notifier.SendTelegram(ctx, userID, title+"\n"+message)
	if res.Failed() {
		log.Warn("telegram notification failed", slog.String("reason", res.Reason))
	}
}
