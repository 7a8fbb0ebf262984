// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/query"
)

// ProfessionalFilter is the store level form of a listing query.
type ProfessionalFilter struct {
	Category            string
	City                string
	Neighborhood        string
	MinRating           *float64
	MinJobs             *int
	Verified            bool
	MostActive          bool
	MostActiveThreshold int
	SortBy              query.SortBy
	Offset              int
	Limit               int
}

// ProfessionalRepository reads professional profiles. Every method only
// returns professionals eligible for listing: non-empty title, at least one
// service category, not banned.
type ProfessionalRepository interface {
	// ListProfessionals returns one page of professionals matching filter
	// together with the total number of matches.
	ListProfessionals(ctx context.Context, filter ProfessionalFilter) ([]domain.ProfessionalRecord, int, error)

	// GetProfessionalByID returns apperrors.ErrNotFound when the user does not
	// exist or is not eligible for listing.
	GetProfessionalByID(ctx context.Context, id string) (*domain.ProfessionalRecord, error)

	// ListFlaggedProfessionals returns featured, early adopter and currently
	// active top professionals, best rated first.
	ListFlaggedProfessionals(ctx context.Context, now time.Time, limit int) ([]domain.ProfessionalRecord, error)

	// ListFeaturedCandidates returns up to limit professionals not in excludeIDs.
	ListFeaturedCandidates(ctx context.Context, excludeIDs []string, limit int) ([]domain.ProfessionalRecord, error)

	// ListProfessionalsByCategory returns every professional offering category,
	// except excludeUserID.
	ListProfessionalsByCategory(ctx context.Context, category string, excludeUserID string) ([]domain.ProfessionalRecord, error)
}

// TaskQueryRepository defines read-only task operations, following the CQRS pattern.
type TaskQueryRepository interface {
	// GetTaskByID returns apperrors.ErrNotFound if the task does not exist.
	// The ext argument allows this method to be executed within a transaction (*sqlx.Tx)
	// or directly on a DB connection (*sqlx.DB).
	GetTaskByID(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.Task, error)
}

// TaskCommandRepository defines write and locking task operations.
// All methods are expected to be executed within a transaction.
type TaskCommandRepository interface {
	CreateTask(ctx context.Context, tx *sqlx.Tx, task *domain.Task) error

	// GetTaskByIDWithLock acquires a row-level lock ("FOR UPDATE") on the task.
	// It returns apperrors.ErrNotFound if the task is not found.
	GetTaskByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Task, error)

	// StartTask moves an open task to in_progress and records the selected
	// professional. It returns apperrors.ErrTaskNotOpen when the task is no
	// longer open.
	StartTask(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string, at time.Time) error

	// ReopenTask moves an in_progress task back to open and clears the
	// selected professional.
	ReopenTask(ctx context.Context, tx *sqlx.Tx, taskID string, at time.Time) error

	// CompleteTask marks an in_progress task completed.
	CompleteTask(ctx context.Context, tx *sqlx.Tx, taskID string, notes *string, photos []string, at time.Time) error

	IncrementApplicationsCount(ctx context.Context, tx *sqlx.Tx, taskID string) error
}

// ApplicationRepository defines application operations.
// All methods are expected to be executed within a transaction.
type ApplicationRepository interface {
	// CreateApplication returns *apperrors.DuplicateApplicationError when the
	// professional already has a non-withdrawn application for the task.
	CreateApplication(ctx context.Context, tx *sqlx.Tx, app *domain.Application) error

	// GetApplicationByIDWithLock returns apperrors.ErrNotFound if the application is not found.
	GetApplicationByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Application, error)

	// FindActiveApplication returns the non-withdrawn application of the
	// professional for the task, or apperrors.ErrNotFound. The row is not locked.
	FindActiveApplication(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error)

	// FindActiveApplicationWithLock is FindActiveApplication taking a row lock.
	// Callers lock the application before its task.
	FindActiveApplicationWithLock(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error)

	// ChangeStatus applies change only while the application is still in
	// change.From and returns apperrors.ErrApplicationNotPending otherwise.
	// Accepting while another application of the task is accepted returns
	// apperrors.ErrTaskNotOpen.
	ChangeStatus(ctx context.Context, tx *sqlx.Tx, change domain.StatusChange) error
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	// CreateTaskInvitation inserts the invitation unless the user has already
	// been invited to the task. created is false in that case.
	CreateTaskInvitation(ctx context.Context, n *domain.Notification) (created bool, err error)

	// Create inserts any other notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListInvitedUserIDs returns users holding a task_invitation for taskID.
	ListInvitedUserIDs(ctx context.Context, taskID string) ([]string, error)
}

// ReviewRepository backs the review enforcement gate.
type ReviewRepository interface {
	// CountPendingReviews counts completed tasks of the customer that the
	// customer has not reviewed yet.
	CountPendingReviews(ctx context.Context, customerID string) (int, error)
}

// RecipientRepository loads contact data for notification delivery.
type RecipientRepository interface {
	// GetRecipient returns apperrors.ErrNotFound if the user does not exist.
	GetRecipient(ctx context.Context, userID string) (*domain.Recipient, error)
}
