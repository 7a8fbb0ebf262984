package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
)

type TransactorMock struct {
	mock.Mock
}

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}

type ProfessionalRepositoryMock struct {
	mock.Mock
}

var _ repository.ProfessionalRepository = (*ProfessionalRepositoryMock)(nil)

func (m *ProfessionalRepositoryMock) ListProfessionals(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.ProfessionalRecord, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]domain.ProfessionalRecord), args.Int(1), args.Error(2)
}

func (m *ProfessionalRepositoryMock) GetProfessionalByID(ctx context.Context, id string) (*domain.ProfessionalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ProfessionalRecord), args.Error(1)
}

func (m *ProfessionalRepositoryMock) ListFlaggedProfessionals(ctx context.Context, now time.Time, limit int) ([]domain.ProfessionalRecord, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ProfessionalRecord), args.Error(1)
}

func (m *ProfessionalRepositoryMock) ListFeaturedCandidates(ctx context.Context, excludeIDs []string, limit int) ([]domain.ProfessionalRecord, error) {
	args := m.Called(ctx, excludeIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ProfessionalRecord), args.Error(1)
}

func (m *ProfessionalRepositoryMock) ListProfessionalsByCategory(ctx context.Context, category string, excludeUserID string) ([]domain.ProfessionalRecord, error) {
	args := m.Called(ctx, category, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ProfessionalRecord), args.Error(1)
}

type FeaturedRankerMock struct {
	mock.Mock
}

func (m *FeaturedRankerMock) Featured(ctx context.Context, limit int) ([]domain.ProfessionalRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ProfessionalRecord), args.Error(1)
}

type TaskRepositoryMock struct {
	mock.Mock
}

var (
	_ repository.TaskQueryRepository   = (*TaskRepositoryMock)(nil)
	_ repository.TaskCommandRepository = (*TaskRepositoryMock)(nil)
)

func (m *TaskRepositoryMock) GetTaskByID(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.Task, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *TaskRepositoryMock) CreateTask(ctx context.Context, tx *sqlx.Tx, task *domain.Task) error {
	args := m.Called(ctx, tx, task)
	return args.Error(0)
}

func (m *TaskRepositoryMock) GetTaskByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Task, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *TaskRepositoryMock) StartTask(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string, at time.Time) error {
	args := m.Called(ctx, tx, taskID, professionalID, at)
	return args.Error(0)
}

func (m *TaskRepositoryMock) ReopenTask(ctx context.Context, tx *sqlx.Tx, taskID string, at time.Time) error {
	args := m.Called(ctx, tx, taskID, at)
	return args.Error(0)
}

func (m *TaskRepositoryMock) CompleteTask(ctx context.Context, tx *sqlx.Tx, taskID string, notes *string, photos []string, at time.Time) error {
	args := m.Called(ctx, tx, taskID, notes, photos, at)
	return args.Error(0)
}

func (m *TaskRepositoryMock) IncrementApplicationsCount(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	args := m.Called(ctx, tx, taskID)
	return args.Error(0)
}

type ApplicationRepositoryMock struct {
	mock.Mock
}

var _ repository.ApplicationRepository = (*ApplicationRepositoryMock)(nil)

func (m *ApplicationRepositoryMock) CreateApplication(ctx context.Context, tx *sqlx.Tx, app *domain.Application) error {
	args := m.Called(ctx, tx, app)
	return args.Error(0)
}

func (m *ApplicationRepositoryMock) GetApplicationByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Application, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationRepositoryMock) FindActiveApplication(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error) {
	args := m.Called(ctx, tx, taskID, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}
func (m *ApplicationRepositoryMock) FindActiveApplicationWithLock(ctx context.Context, tx *sqlx.Tx, taskID string, professionalID string) (*domain.Application, error) {
	args := m.Called(ctx, tx, taskID, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationRepositoryMock) ChangeStatus(ctx context.Context, tx *sqlx.Tx, change domain.StatusChange) error {
	args := m.Called(ctx, tx, change)
	return args.Error(0)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

var _ repository.NotificationRepository = (*NotificationRepositoryMock)(nil)

func (m *NotificationRepositoryMock) CreateTaskInvitation(ctx context.Context, n *domain.Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) ListInvitedUserIDs(ctx context.Context, taskID string) ([]string, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

type ReviewRepositoryMock struct {
	mock.Mock
}

func (m *ReviewRepositoryMock) CountPendingReviews(ctx context.Context, customerID string) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

var _ Notifier = (*NotifierMock)(nil)

func (m *NotifierMock) SendTelegram(ctx context.Context, userID string, message string) domain.DeliveryResult {
	args := m.Called(ctx, userID, message)
	return args.Get(0).(domain.DeliveryResult)
}

func (m *NotifierMock) SendEmail(ctx context.Context, userID string, templateKey string, data map[string]any, locale string) domain.DeliveryResult {
	args := m.Called(ctx, userID, templateKey, data, locale)
	return args.Get(0).(domain.DeliveryResult)
}

func (m *NotifierMock) ShareContact(ctx context.Context, share domain.ContactShare) domain.DeliveryResult {
	args := m.Called(ctx, share)
	return args.Get(0).(domain.DeliveryResult)
}

type LinkGeneratorMock struct {
	mock.Mock
}

func (m *LinkGeneratorMock) Generate(userID string, channel string, destinationPath string) (string, error) {
	args := m.Called(userID, channel, destinationPath)
	return args.String(0), args.Error(1)
}

type TranslatorMock struct {
	mock.Mock
}

func (m *TranslatorMock) Translate(key string, locale string) string {
	args := m.Called(key, locale)
	return args.String(0)
}

type WithdrawalQuotaMock struct {
	mock.Mock
}

func (m *WithdrawalQuotaMock) Check(ctx context.Context, professionalID string) error {
	args := m.Called(ctx, professionalID)
	return args.Error(0)
}

func (m *WithdrawalQuotaMock) Record(ctx context.Context, professionalID string) error {
	args := m.Called(ctx, professionalID)
	return args.Error(0)
}

type InviteEnqueuerMock struct {
	mock.Mock
}

func (m *InviteEnqueuerMock) EnqueueInvites(ctx context.Context, job domain.InviteJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

var sent = domain.DeliveryResult{Status: domain.DeliverySent}

// allowSideEffects accepts any best-effort notification the service emits
// after a commit.
func allowSideEffects(notifications *NotificationRepositoryMock, notifier *NotifierMock) {
	notifications.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier.On("SendTelegram", mock.Anything, mock.Anything, mock.Anything).Return(sent).Maybe()
	notifier.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(sent).Maybe()
	notifier.On("ShareContact", mock.Anything, mock.Anything).Return(sent).Maybe()
}
