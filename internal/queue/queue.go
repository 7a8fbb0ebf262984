// Package queue runs auto-invitations outside the request that created the
// task, on asynq when redis is configured and in process otherwise.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

const (
	TypeAutoInvite = "invite:auto"
	QueueInvites   = "invites"

	inviteTimeout = 2 * time.Minute
)

var ErrClosed = errors.New("queue is closed")

// Handler performs the invitation fan-out for one task.
type Handler interface {
	SendAutoInvitations(ctx context.Context, job domain.InviteJob) (*domain.InviteResult, error)
}

func newInviteTask(job domain.InviteJob) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeAutoInvite, payload,
		asynq.Queue(QueueInvites),
		asynq.MaxRetry(3),
		asynq.Timeout(inviteTimeout),
	), nil
}

// AsynqQueue enqueues invite jobs into redis.
type AsynqQueue struct {
	client *asynq.Client
	log    *slog.Logger
}

func NewAsynqQueue(client *asynq.Client, log *slog.Logger) *AsynqQueue {
	return &AsynqQueue{client: client, log: log}
}

func (q *AsynqQueue) EnqueueInvites(ctx context.Context, job domain.InviteJob) error {
	const op = "internal.queue.AsynqQueue.EnqueueInvites"

	task, err := newInviteTask(job)
	if err != nil {
		return fmt.Errorf("%s: failed to build task: %w", op, err)
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("%s: failed to enqueue: %w", op, err)
	}

	q.log.Debug("invite job enqueued",
		slog.String("op", op),
		slog.String("task_id", job.TaskID),
		slog.String("job_id", info.ID),
	)

	return nil
}

// Worker consumes invite jobs on the asynq server side.
type Worker struct {
	log     *slog.Logger
	handler Handler
}

func NewWorker(log *slog.Logger, handler Handler) *Worker {
	return &Worker{log: log, handler: handler}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeAutoInvite, w)
}

func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	const op = "internal.queue.Worker.ProcessTask"

	var job domain.InviteJob
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("%s: malformed payload: %v: %w", op, err, asynq.SkipRetry)
	}

	result, err := w.handler.SendAutoInvitations(ctx, job)
	if err != nil {
		w.log.Error("auto-invitations failed", slog.String("op", op), slog.String("task_id", job.TaskID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	w.log.Info("auto-invitations processed",
		slog.String("op", op),
		slog.String("task_id", job.TaskID),
		slog.Int("invited", result.InvitedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", len(result.Errors)),
	)

	return nil
}
