package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

type CreateTaskInput struct {
	CustomerID   string
	Title        string
	Description  string
	Category     string
	Subcategory  *string
	City         string
	Neighborhood *string
	BudgetMin    *float64
	BudgetMax    *float64
	BudgetType   domain.BudgetType
}

type CreateTaskResult struct {
	Task *domain.Task `json:"task"`
	// PendingReviews is set when the customer still owes reviews but is
	// below the hard block threshold.
	PendingReviews int `json:"pending_reviews,omitempty"`
}

type TaskService interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*CreateTaskResult, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	MarkComplete(ctx context.Context, taskID string, userID string, notes *string, photos []string) (*domain.Task, error)
}

type TaskServiceImpl struct {
	BaseService
	reader             sqlx.ExtContext
	taskQuery          repository.TaskQueryRepository
	taskCmd            repository.TaskCommandRepository
	reviews            repository.ReviewRepository
	invites            InviteEnqueuer
	notifier           Notifier
	inbox              inbox
	hardBlockThreshold int
	now                func() time.Time
	newID              func() string
}

func NewTaskService(
	db Transactor,
	reader sqlx.ExtContext,
	log *slog.Logger,
	taskQuery repository.TaskQueryRepository,
	taskCmd repository.TaskCommandRepository,
	reviews repository.ReviewRepository,
	notifications repository.NotificationRepository,
	invites InviteEnqueuer,
	notifier Notifier,
	hardBlockThreshold int,
) *TaskServiceImpl {
	s := &TaskServiceImpl{
		BaseService:        NewBaseService(db, log),
		reader:             reader,
		taskQuery:          taskQuery,
		taskCmd:            taskCmd,
		reviews:            reviews,
		invites:            invites,
		notifier:           notifier,
		hardBlockThreshold: hardBlockThreshold,
		now:                time.Now,
		newID:              newID,
	}

	s.inbox = inbox{log: log, repo: notifications, notifier: notifier, newID: s.newID, now: s.now}

	return s
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, in CreateTaskInput) (*CreateTaskResult, error) {
	const op = "internal.service.task.CreateTask"
	log := s.log.With(slog.String("op", op), slog.String("customer_id", in.CustomerID))

	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return nil, fmt.Errorf("%w: budget_min is greater than budget_max", apperrors.ErrValidation)
	}

	pending, err := s.reviews.CountPendingReviews(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count pending reviews: %w", op, err)
	}

	if s.hardBlockThreshold > 0 && pending >= s.hardBlockThreshold {
		log.Info("task creation blocked by pending reviews", slog.Int("pending_reviews", pending))
		return nil, fmt.Errorf("%w: %d completed tasks are waiting for your review", apperrors.ErrPendingReviews, pending)
	}

	budgetType := in.BudgetType
	if budgetType == "" {
		budgetType = domain.BudgetTypeFixed
	}

	now := s.now().UTC()
	task := &domain.Task{
		ID:               s.newID(),
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Category:         in.Category,
		Subcategory:      in.Subcategory,
		City:             strings.TrimSpace(in.City),
		Neighborhood:     in.Neighborhood,
		BudgetMin:        in.BudgetMin,
		BudgetMax:        in.BudgetMax,
		BudgetType:       budgetType,
		Status:           domain.TaskStatusOpen,
		CustomerID:       in.CustomerID,
		CompletionPhotos: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.taskCmd.CreateTask(ctx, tx, task); err != nil {
			return fmt.Errorf("%s: failed to create task: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task created", slog.String("task_id", task.ID))

	job := domain.InviteJob{
		TaskID:     task.ID,
		Title:      task.Title,
		Category:   task.Category,
		City:       task.City,
		CustomerID: task.CustomerID,
		BudgetMax:  task.BudgetMax,
	}

	if err := s.invites.EnqueueInvites(ctx, job); err != nil {
		log.Error("failed to enqueue auto-invitations", sl.Err(err))
	}

	return &CreateTaskResult{Task: task, PendingReviews: pending}, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	const op = "internal.service.task.GetTask"

	if err := requireID(id, "task"); err != nil {
		return nil, err
	}

	task, err := s.taskQuery.GetTaskByID(ctx, s.reader, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get task: %w", op, err)
	}

	return task, nil
}

func (s *TaskServiceImpl) MarkComplete(ctx context.Context, taskID string, userID string, notes *string, photos []string) (*domain.Task, error) {
	const op = "internal.service.task.MarkComplete"
	log := s.log.With(slog.String("op", op), slog.String("task_id", taskID), slog.String("user_id", userID))

	if err := requireID(taskID, "task"); err != nil {
		return nil, err
	}

	var task *domain.Task

	now := s.now().UTC()
	notes = trimmed(notes)

	if photos == nil {
		photos = []string{}
	}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		task, err = s.taskCmd.GetTaskByIDWithLock(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("%s: failed to get task with lock: %w", op, err)
		}

		if !task.IsParticipant(userID) {
			return apperrors.ErrForbidden
		}

		switch task.Status {
		case domain.TaskStatusCompleted:
			return apperrors.ErrTaskAlreadyCompleted
		case domain.TaskStatusInProgress:
		default:
			return apperrors.ErrInvalidTaskStatus
		}

		if err := s.taskCmd.CompleteTask(ctx, tx, taskID, notes, photos, now); err != nil {
			return fmt.Errorf("%s: failed to complete task: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatusCompleted
	task.CompletionNotes = notes
	task.CompletionPhotos = photos
	task.CompletedAt = &now
	task.UpdatedAt = now

	log.Info("task completed")

	counterpart := task.CustomerID
	if userID == task.CustomerID {
		counterpart = *task.SelectedProfessionalID
	}

	s.inbox.push(ctx, counterpart, domain.NotificationTaskCompleted, task.ID,
		"Task completed",
		fmt.Sprintf("%q was marked as completed.", task.Title),
	)

	res := s.notifier.SendEmail(ctx, task.CustomerID, "review_request", map[string]any{
		"task_id":    task.ID,
		"task_title": task.Title,
	}, "")
	if res.Failed() {
		log.Warn("failed to send review request", slog.String("reason", res.Reason))
	}

	return task, nil
}
