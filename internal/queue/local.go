package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

// LocalQueue runs every job in its own goroutine. Job failures and panics
// are published on Errors. When the channel is full they are logged
// instead, so the owner should keep draining it.
type LocalQueue struct {
	log     *slog.Logger
	handler Handler
	errs    chan error

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalQueue(log *slog.Logger, handler Handler) *LocalQueue {
	return &LocalQueue{
		log:     log,
		handler: handler,
		errs:    make(chan error, 64),
	}
}

func (q *LocalQueue) Errors() <-chan error {
	return q.errs
}

func (q *LocalQueue) EnqueueInvites(ctx context.Context, job domain.InviteJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.wg.Add(1)

	// the job outlives the request
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inviteTimeout)

	go func() {
		defer q.wg.Done()
		defer cancel()

		q.run(jobCtx, job)
	}()

	return nil
}

func (q *LocalQueue) run(ctx context.Context, job domain.InviteJob) {
	const op = "internal.queue.LocalQueue.run"
	log := q.log.With(slog.String("op", op), slog.String("task_id", job.TaskID))

	defer func() {
		if r := recover(); r != nil {
			q.report(log, fmt.Errorf("%s: panic: %v", op, r))
		}
	}()

	result, err := q.handler.SendAutoInvitations(ctx, job)
	if err != nil {
		q.report(log, fmt.Errorf("%s: %w", op, err))

		return
	}

	log.Info("auto-invitations processed",
		slog.Int("invited", result.InvitedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", len(result.Errors)),
	)
}

func (q *LocalQueue) report(log *slog.Logger, err error) {
	select {
	case q.errs <- err:
	default:
		log.Error("invite job failed, error channel full", sl.Err(err))
	}
}

// Close rejects new jobs and waits for the running ones.
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
	close(q.errs)
}
