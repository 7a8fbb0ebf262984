//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
)

const (
	taskID = "00000000-0000-0000-0000-0000000000a1"
	appOne = "00000000-0000-0000-0000-0000000000b1"
	appTwo = "00000000-0000-0000-0000-0000000000b2"
)

func newApplication(id, professionalID string) *domain.Application {
	now := time.Now().UTC()
	return &domain.Application{
		ID:               id,
		TaskID:           taskID,
		ProfessionalID:   professionalID,
		ProposedPrice:    100,
		ProposedTimeline: "within-week",
		Message:          "Available this week",
		Status:           domain.ApplicationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setupProfessionals(t)
	repo := NewTaskRepository(testDB, logger)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	task := &domain.Task{
		ID: taskID, Title: "Fix the sink", Description: "Kitchen sink leaks", Category: "plumbing",
		City: "Sofia", BudgetMax: ptr(120.0), BudgetType: domain.BudgetTypeFixed,
		Status: domain.TaskStatusOpen, CustomerID: customerID, CreatedAt: now, UpdatedAt: now,
	}

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.CreateTask(ctx, tx, task))
	require.NoError(t, tx.Commit())

	got, err := repo.GetTaskByID(ctx, testDB, taskID)
	require.NoError(t, err)
	assert.Equal(t, "Fix the sink", got.Title)
	assert.Equal(t, domain.TaskStatusOpen, got.Status)
	assert.Nil(t, got.SelectedProfessionalID)
	require.NotNil(t, got.BudgetMax)
	assert.InDelta(t, 120.0, *got.BudgetMax, 0.001)
	assert.Empty(t, got.CompletionPhotos)

	_, err = repo.GetTaskByID(ctx, testDB, "00000000-0000-0000-0000-00000000ffff")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	task.ID = "00000000-0000-0000-0000-0000000000a2"
	task.CustomerID = "00000000-0000-0000-0000-00000000ffff"
	err = repo.CreateTask(ctx, tx, task)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, tx.Rollback())
}

func TestApplicationLifecycle_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setupProfessionals(t)
	seedTask(t, testDB, taskID, customerID, "plumbing", "Sofia")
	tasks := NewTaskRepository(testDB, logger)
	apps := NewApplicationRepository(testDB, logger)
	ctx := context.Background()

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, apps.CreateApplication(ctx, tx, newApplication(appOne, proPlumber)))
	require.NoError(t, apps.CreateApplication(ctx, tx, newApplication(appTwo, proCleaner)))
	require.NoError(t, tasks.IncrementApplicationsCount(ctx, tx, taskID))
	require.NoError(t, tasks.IncrementApplicationsCount(ctx, tx, taskID))
	require.NoError(t, tx.Commit())

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	err = apps.CreateApplication(ctx, tx, newApplication("00000000-0000-0000-0000-0000000000b3", proPlumber))
	var dupErr *apperrors.DuplicateApplicationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, proPlumber, dupErr.ProfessionalID)
	require.NoError(t, tx.Rollback())

	now := time.Now().UTC()
	tx, err = testDB.Beginx()
	require.NoError(t, err)
	app, err := apps.GetApplicationByIDWithLock(ctx, tx, appOne)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	require.NoError(t, apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: appOne, From: domain.ApplicationStatusPending, To: domain.ApplicationStatusAccepted, At: now,
	}))
	require.NoError(t, tasks.StartTask(ctx, tx, taskID, proPlumber, now))
	require.NoError(t, tx.Commit())

	task, err := tasks.GetTaskByID(ctx, testDB, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	require.NotNil(t, task.SelectedProfessionalID)
	assert.Equal(t, proPlumber, *task.SelectedProfessionalID)
	assert.Equal(t, 2, task.ApplicationsCount)

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	err = apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: appTwo, From: domain.ApplicationStatusPending, To: domain.ApplicationStatusAccepted, At: now,
	})
	assert.ErrorIs(t, err, apperrors.ErrTaskNotOpen)
	require.NoError(t, tx.Rollback())

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	err = tasks.StartTask(ctx, tx, taskID, proCleaner, now)
	assert.ErrorIs(t, err, apperrors.ErrTaskNotOpen)
	require.NoError(t, tx.Rollback())

	task, err = tasks.GetTaskByID(ctx, testDB, taskID)
	require.NoError(t, err)
	assert.Equal(t, proPlumber, *task.SelectedProfessionalID)

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	err = apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: appOne, From: domain.ApplicationStatusPending, To: domain.ApplicationStatusRejected, At: now,
	})
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotPending)
	require.NoError(t, tx.Rollback())

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, tasks.CompleteTask(ctx, tx, taskID, ptr("done"), []string{"https://cdn/p.jpg"}, now))
	require.NoError(t, tx.Commit())

	task, err = tasks.GetTaskByID(ctx, testDB, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, []string{"https://cdn/p.jpg"}, []string(task.CompletionPhotos))
	assert.NotNil(t, task.CompletedAt)

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	err = tasks.CompleteTask(ctx, tx, taskID, nil, nil, now)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTaskStatus)
	require.NoError(t, tx.Rollback())
}

func TestApplicationRepository_WithdrawAndReapply(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setupProfessionals(t)
	seedTask(t, testDB, taskID, customerID, "plumbing", "Sofia")
	tasks := NewTaskRepository(testDB, logger)
	apps := NewApplicationRepository(testDB, logger)
	ctx := context.Background()
	now := time.Now().UTC()

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, apps.CreateApplication(ctx, tx, newApplication(appOne, proPlumber)))
	require.NoError(t, apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: appOne, From: domain.ApplicationStatusPending, To: domain.ApplicationStatusAccepted, At: now,
	}))
	require.NoError(t, tasks.StartTask(ctx, tx, taskID, proPlumber, now))
	require.NoError(t, tx.Commit())

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	active, err := apps.FindActiveApplicationWithLock(ctx, tx, taskID, proPlumber)
	require.NoError(t, err)
	assert.Equal(t, appOne, active.ID)
	require.NoError(t, apps.ChangeStatus(ctx, tx, domain.StatusChange{
		ApplicationID: appOne, From: domain.ApplicationStatusAccepted, To: domain.ApplicationStatusWithdrawn,
		Reason: ptr("emergency"), At: now,
	}))
	require.NoError(t, tasks.ReopenTask(ctx, tx, taskID, now))
	require.NoError(t, tx.Commit())

	task, err := tasks.GetTaskByID(ctx, testDB, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)
	assert.Nil(t, task.SelectedProfessionalID)

	tx, err = testDB.Beginx()
	require.NoError(t, err)
	_, err = apps.FindActiveApplication(ctx, tx, taskID, proPlumber)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, apps.CreateApplication(ctx, tx, newApplication(appTwo, proPlumber)))
	require.NoError(t, tx.Commit())
}
