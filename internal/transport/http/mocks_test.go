package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/service"
)

type ProfessionalServiceMock struct {
	mock.Mock
}

func (m *ProfessionalServiceMock) GetProfessionals(ctx context.Context, raw map[string]string) (*service.ProfessionalsPage, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.ProfessionalsPage), args.Error(1)
}

func (m *ProfessionalServiceMock) GetProfessionalByID(ctx context.Context, id string) (*domain.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Professional), args.Error(1)
}

type TaskServiceMock struct {
	mock.Mock
}

func (m *TaskServiceMock) CreateTask(ctx context.Context, in service.CreateTaskInput) (*service.CreateTaskResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.CreateTaskResult), args.Error(1)
}

func (m *TaskServiceMock) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *TaskServiceMock) MarkComplete(ctx context.Context, taskID string, userID string, notes *string, photos []string) (*domain.Task, error) {
	args := m.Called(ctx, taskID, userID, notes, photos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Task), args.Error(1)
}

type ApplicationServiceMock struct {
	mock.Mock
}

func (m *ApplicationServiceMock) Submit(ctx context.Context, in service.SubmitApplicationInput) (*domain.Application, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationServiceMock) Accept(ctx context.Context, applicationID string, customerID string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationServiceMock) Reject(ctx context.Context, applicationID string, customerID string, reason *string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, customerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationServiceMock) Withdraw(ctx context.Context, applicationID string, professionalID string, reason *string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, professionalID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *ApplicationServiceMock) WithdrawFromTask(ctx context.Context, taskID string, professionalID string, reason string, description *string) (*domain.Application, error) {
	args := m.Called(ctx, taskID, professionalID, reason, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Application), args.Error(1)
}
