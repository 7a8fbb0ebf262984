package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
	"github.com/trudify/trudify-core/internal/validation"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

const (
	TimelineSameDay     = "same-day"
	TimelineWithin3Days = "within-3-days"
	TimelineWithinWeek  = "within-week"
	TimelineFlexible    = "flexible"
)

type SubmitApplicationInput struct {
	TaskID                 string
	ProfessionalID         string
	ProposedPrice          float64
	Timeline               string
	EstimatedDurationHours *float64
	Message                string
}

type ApplicationService interface {
	Submit(ctx context.Context, in SubmitApplicationInput) (*domain.Application, error)
	Accept(ctx context.Context, applicationID string, customerID string) (*domain.Application, error)
	Reject(ctx context.Context, applicationID string, customerID string, reason *string) (*domain.Application, error)
	Withdraw(ctx context.Context, applicationID string, professionalID string, reason *string) (*domain.Application, error)
	WithdrawFromTask(ctx context.Context, taskID string, professionalID string, reason string, description *string) (*domain.Application, error)
}

type ApplicationServiceImpl struct {
	BaseService
	tasks    repository.TaskCommandRepository
	apps     repository.ApplicationRepository
	notifier Notifier
	quota    WithdrawalQuota
	inbox    inbox
	contact  domain.ContactMethod
	now      func() time.Time
	newID    func() string
}

func NewApplicationService(
	db Transactor,
	log *slog.Logger,
	tasks repository.TaskCommandRepository,
	apps repository.ApplicationRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	quota WithdrawalQuota,
	contact domain.ContactMethod,
) *ApplicationServiceImpl {
	s := &ApplicationServiceImpl{
		BaseService: NewBaseService(db, log),
		tasks:       tasks,
		apps:        apps,
		notifier:    notifier,
		quota:       quota,
		contact:     contact,
		now:         time.Now,
		newID:       newID,
	}

	s.inbox = inbox{log: log, repo: notifications, notifier: notifier, newID: s.newID, now: s.now}

	return s
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ResolveTimeline prefers the free-text timeline and otherwise derives one
// from the estimated duration. It returns "" when neither is usable.
func ResolveTimeline(timeline string, estimatedHours *float64) string {
	if t := strings.TrimSpace(timeline); t != "" {
		return t
	}

	if estimatedHours == nil || *estimatedHours <= 0 {
		return ""
	}

	switch h := *estimatedHours; {
	case h <= 8:
		return TimelineSameDay
	case h <= 72:
		return TimelineWithin3Days
	case h <= 168:
		return TimelineWithinWeek
	default:
		return TimelineFlexible
	}
}

func (s *ApplicationServiceImpl) Submit(ctx context.Context, in SubmitApplicationInput) (*domain.Application, error) {
	const op = "internal.service.application.Submit"
	log := s.log.With(slog.String("op", op), slog.String("task_id", in.TaskID), slog.String("professional_id", in.ProfessionalID))

	if err := validation.CheckMessage(in.Message); err != nil {
		log.Info("application message rejected", sl.Err(err))
		return nil, err
	}

	if in.ProposedPrice <= 0 {
		return nil, fmt.Errorf("%w: proposed price must be positive", apperrors.ErrValidation)
	}

	timeline := ResolveTimeline(in.Timeline, in.EstimatedDurationHours)
	if timeline == "" {
		return nil, fmt.Errorf("%w: timeline or estimated duration is required", apperrors.ErrValidation)
	}

	if err := requireID(in.TaskID, "task"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app := &domain.Application{
		ID:               s.newID(),
		TaskID:           in.TaskID,
		ProfessionalID:   in.ProfessionalID,
		ProposedPrice:    in.ProposedPrice,
		ProposedTimeline: timeline,
		Message:          strings.TrimSpace(in.Message),
		Status:           domain.ApplicationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var task *domain.Task

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		task, err = s.tasks.GetTaskByIDWithLock(ctx, tx, in.TaskID)
		if err != nil {
			return fmt.Errorf("%s: failed to get task with lock: %w", op, err)
		}

		if task.CustomerID == in.ProfessionalID {
			return apperrors.ErrOwnTask
		}

		if task.Status != domain.TaskStatusOpen {
			return apperrors.ErrTaskNotOpen
		}

		_, err = s.apps.FindActiveApplication(ctx, tx, in.TaskID, in.ProfessionalID)
		switch {
		case err == nil:
			return &apperrors.DuplicateApplicationError{TaskID: in.TaskID, ProfessionalID: in.ProfessionalID}
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("%s: failed to check existing application: %w", op, err)
		}

		if err := s.apps.CreateApplication(ctx, tx, app); err != nil {
			return fmt.Errorf("%s: failed to create application: %w", op, err)
		}

		if err := s.tasks.IncrementApplicationsCount(ctx, tx, in.TaskID); err != nil {
			return fmt.Errorf("%s: failed to increment applications count: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("application submitted", slog.String("application_id", app.ID))

	s.inbox.push(ctx, task.CustomerID, domain.NotificationApplicationReceived, task.ID,
		"New application",
		fmt.Sprintf("A professional applied to %q for %.2f (%s).", task.Title, app.ProposedPrice, app.ProposedTimeline),
	)

	return app, nil
}

func (s *ApplicationServiceImpl) Accept(ctx context.Context, applicationID string, customerID string) (*domain.Application, error) {
	const op = "internal.service.application.Accept"
	log := s.log.With(slog.String("op", op), slog.String("application_id", applicationID))

	if err := requireID(applicationID, "application"); err != nil {
		return nil, err
	}

	var (
		app  *domain.Application
		task *domain.Task
	)

	now := s.now().UTC()

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		app, task, err = s.lockApplicationAndTask(ctx, tx, op, applicationID)
		if err != nil {
			return err
		}

		if task.CustomerID != customerID {
			return apperrors.ErrForbidden
		}

		if app.Status != domain.ApplicationStatusPending {
			return apperrors.ErrApplicationNotPending
		}

		if task.Status != domain.TaskStatusOpen {
			return apperrors.ErrTaskNotOpen
		}

		if err := s.apps.ChangeStatus(ctx, tx, domain.StatusChange{
			ApplicationID: app.ID,
			From:          domain.ApplicationStatusPending,
			To:            domain.ApplicationStatusAccepted,
			At:            now,
		}); err != nil {
			return fmt.Errorf("%s: failed to accept application: %w", op, err)
		}

		// guards the accept race: a concurrent accept may have started the task
		if err := s.tasks.StartTask(ctx, tx, task.ID, app.ProfessionalID, now); err != nil {
			return fmt.Errorf("%s: failed to start task: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationStatusAccepted
	app.RespondedAt = &now
	app.UpdatedAt = now

	log.Info("application accepted", slog.String("task_id", task.ID), slog.String("professional_id", app.ProfessionalID))

	res := s.notifier.ShareContact(ctx, domain.ContactShare{
		Method:         s.contact,
		TaskID:         task.ID,
		TaskTitle:      task.Title,
		CustomerID:     task.CustomerID,
		ProfessionalID: app.ProfessionalID,
	})
	if res.Failed() {
		log.Warn("failed to share contact info", slog.String("reason", res.Reason))
	}

	s.inbox.push(ctx, app.ProfessionalID, domain.NotificationApplicationAccepted, task.ID,
		"Application accepted",
		fmt.Sprintf("Your application for %q was accepted.", task.Title),
	)

	return app, nil
}

func (s *ApplicationServiceImpl) Reject(ctx context.Context, applicationID string, customerID string, reason *string) (*domain.Application, error) {
	const op = "internal.service.application.Reject"
	log := s.log.With(slog.String("op", op), slog.String("application_id", applicationID))

	if err := requireID(applicationID, "application"); err != nil {
		return nil, err
	}

	var (
		app  *domain.Application
		task *domain.Task
	)

	now := s.now().UTC()
	reason = trimmed(reason)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		app, task, err = s.lockApplicationAndTask(ctx, tx, op, applicationID)
		if err != nil {
			return err
		}

		if task.CustomerID != customerID {
			return apperrors.ErrForbidden
		}

		if app.Status != domain.ApplicationStatusPending {
			return apperrors.ErrApplicationNotPending
		}

		if err := s.apps.ChangeStatus(ctx, tx, domain.StatusChange{
			ApplicationID: app.ID,
			From:          domain.ApplicationStatusPending,
			To:            domain.ApplicationStatusRejected,
			Reason:        reason,
			At:            now,
		}); err != nil {
			return fmt.Errorf("%s: failed to reject application: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationStatusRejected
	app.RejectionReason = reason
	app.RespondedAt = &now
	app.UpdatedAt = now

	log.Info("application rejected")

	s.inbox.push(ctx, app.ProfessionalID, domain.NotificationApplicationRejected, task.ID,
		"Application rejected",
		fmt.Sprintf("Your application for %q was not selected.", task.Title),
	)

	return app, nil
}

func (s *ApplicationServiceImpl) Withdraw(ctx context.Context, applicationID string, professionalID string, reason *string) (*domain.Application, error) {
	const op = "internal.service.application.Withdraw"
	log := s.log.With(slog.String("op", op), slog.String("application_id", applicationID))

	if err := requireID(applicationID, "application"); err != nil {
		return nil, err
	}

	var (
		app        *domain.Application
		task       *domain.Task
		fromStatus domain.ApplicationStatus
	)

	now := s.now().UTC()
	reason = trimmed(reason)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		app, err = s.apps.GetApplicationByIDWithLock(ctx, tx, applicationID)
		if err != nil {
			return fmt.Errorf("%s: failed to get application with lock: %w", op, err)
		}

		if app.ProfessionalID != professionalID {
			return apperrors.ErrForbidden
		}

		fromStatus = app.Status

		switch app.Status {
		case domain.ApplicationStatusPending:
			if err := s.apps.ChangeStatus(ctx, tx, domain.StatusChange{
				ApplicationID: app.ID,
				From:          domain.ApplicationStatusPending,
				To:            domain.ApplicationStatusWithdrawn,
				Reason:        reason,
				At:            now,
			}); err != nil {
				return fmt.Errorf("%s: failed to withdraw application: %w", op, err)
			}

			return nil

		case domain.ApplicationStatusAccepted:
			task, err = s.tasks.GetTaskByIDWithLock(ctx, tx, app.TaskID)
			if err != nil {
				return fmt.Errorf("%s: failed to get task with lock: %w", op, err)
			}

			if task.Status != domain.TaskStatusInProgress {
				return apperrors.ErrInvalidApplicationStatus
			}

			return s.withdrawAccepted(ctx, tx, op, app, reason, now)

		default:
			return apperrors.ErrInvalidApplicationStatus
		}
	})
	if err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationStatusWithdrawn
	app.WithdrawalReason = reason
	app.WithdrawnAt = &now
	app.UpdatedAt = now

	log.Info("application withdrawn", slog.String("from", string(fromStatus)))

	if fromStatus == domain.ApplicationStatusAccepted {
		s.afterAcceptedWithdrawal(ctx, log, app, task)
	}

	return app, nil
}

func (s *ApplicationServiceImpl) WithdrawFromTask(ctx context.Context, taskID string, professionalID string, reason string, description *string) (*domain.Application, error) {
	const op = "internal.service.application.WithdrawFromTask"
	log := s.log.With(slog.String("op", op), slog.String("task_id", taskID), slog.String("professional_id", professionalID))

	if err := requireID(taskID, "task"); err != nil {
		return nil, err
	}

	fullReason := strings.TrimSpace(reason)
	if d := trimmed(description); d != nil {
		fullReason += ": " + *d
	}

	if fullReason == "" {
		return nil, fmt.Errorf("%w: reason is required", apperrors.ErrValidation)
	}

	var (
		app  *domain.Application
		task *domain.Task
	)

	now := s.now().UTC()

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err, findErr error

		// lock order: application, then task
		app, findErr = s.apps.FindActiveApplicationWithLock(ctx, tx, taskID, professionalID)
		if findErr != nil && !errors.Is(findErr, apperrors.ErrNotFound) {
			return fmt.Errorf("%s: failed to find accepted application: %w", op, findErr)
		}

		task, err = s.tasks.GetTaskByIDWithLock(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("%s: failed to get task with lock: %w", op, err)
		}

		if task.SelectedProfessionalID == nil || *task.SelectedProfessionalID != professionalID {
			return apperrors.ErrForbidden
		}

		if task.Status != domain.TaskStatusInProgress {
			return apperrors.ErrInvalidTaskStatus
		}

		if findErr != nil {
			return fmt.Errorf("%s: failed to find accepted application: %w", op, findErr)
		}

		if app.Status != domain.ApplicationStatusAccepted {
			return apperrors.ErrInvalidApplicationStatus
		}

		return s.withdrawAccepted(ctx, tx, op, app, &fullReason, now)
	})
	if err != nil {
		return nil, err
	}

	app.Status = domain.ApplicationStatusWithdrawn
	app.WithdrawalReason = &fullReason
	app.WithdrawnAt = &now
	app.UpdatedAt = now

	log.Info("professional withdrew from task", slog.String("application_id", app.ID))

	s.afterAcceptedWithdrawal(ctx, log, app, task)

	return app, nil
}

// withdrawAccepted backs a professional out of started work and puts the
// task back on the market. The caller holds locks on both rows.
func (s *ApplicationServiceImpl) withdrawAccepted(ctx context.Context, tx *sqlx.Tx, op string, app *domain.Application, reason *string, now time.Time) error {
	if err := s.quota.Check(ctx, app.ProfessionalID); err != nil {
		return err
	}

	if err := s.apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: app.ID,
		From:          domain.ApplicationStatusAccepted,
		To:            domain.ApplicationStatusWithdrawn,
		Reason:        reason,
		At:            now,
	}); err != nil {
		return fmt.Errorf("%s: failed to withdraw application: %w", op, err)
	}

	if err := s.tasks.ReopenTask(ctx, tx, app.TaskID, now); err != nil {
		return fmt.Errorf("%s: failed to reopen task: %w", op, err)
	}

	return nil
}

func (s *ApplicationServiceImpl) afterAcceptedWithdrawal(ctx context.Context, log *slog.Logger, app *domain.Application, task *domain.Task) {
	if err := s.quota.Record(ctx, app.ProfessionalID); err != nil {
		log.Error("failed to record withdrawal", sl.Err(err))
	}

	s.inbox.push(ctx, task.CustomerID, domain.NotificationApplicationWithdrawn, task.ID,
		"Professional withdrew",
		fmt.Sprintf("The professional withdrew from %q. The task is open for applications again.", task.Title),
	)
}

func (s *ApplicationServiceImpl) lockApplicationAndTask(ctx context.Context, tx *sqlx.Tx, op string, applicationID string) (*domain.Application, *domain.Task, error) {
	app, err := s.apps.GetApplicationByIDWithLock(ctx, tx, applicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get application with lock: %w", op, err)
	}

	task, err := s.tasks.GetTaskByIDWithLock(ctx, tx, app.TaskID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get task with lock: %w", op, err)
	}

	return app, task, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}

	return &t
}
