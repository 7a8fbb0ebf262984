package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/query"
	"github.com/trudify/trudify-core/internal/service"
	"github.com/ulule/limiter/v3"
)

const (
	testSecret = "test-secret"

	customerID = "0195f3a0-0000-7000-8000-0000000000c1"
	proID      = "0195f3a0-0000-7000-8000-000000000011"
	taskID     = "0195f3a0-0000-7000-8000-0000000000a1"
	appID      = "0195f3a0-0000-7000-8000-0000000000b1"
)

func ptr[T any](v T) *T { return &v }

func signToken(t *testing.T, userID string, mutate ...func(*jwt.RegisteredClaims)) string {
	t.Helper()

	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{AccessAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	for _, fn := range mutate {
		fn(claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return token
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return string(b)
}

func errorJSON(code errorCode, message string) string {
	return fmt.Sprintf(`{"error":{"code":%q,"message":%q}}`, code, message)
}

type testEnv struct {
	profs  *ProfessionalServiceMock
	tasks  *TaskServiceMock
	apps   *ApplicationServiceMock
	router http.Handler
}

func newTestEnv(writeLimiter *limiter.Limiter) *testEnv {
	env := &testEnv{
		profs: new(ProfessionalServiceMock),
		tasks: new(TaskServiceMock),
		apps:  new(ApplicationServiceMock),
	}

	server := NewServer(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Services{Professionals: env.profs, Tasks: env.tasks, Applications: env.apps},
		NewAccessTokens(testSecret),
		writeLimiter,
	)
	env.router = server.Routes()

	return env
}

// do sends the request as userID; an empty userID sends no token.
func (e *testEnv) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	return rr
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.profs.AssertExpectations(t)
	e.tasks.AssertExpectations(t)
	e.apps.AssertExpectations(t)
}

func TestServer_GetProfessionals(t *testing.T) {
	page := &service.ProfessionalsPage{
		Professionals: []domain.Professional{{
			ID:                proID,
			FullName:          ptr("Ivan Petrov"),
			ServiceCategories: []string{"plumbing"},
			City:              ptr("Sofia"),
			ServiceAreaCities: []string{},
			TasksCompleted:    12,
			AverageRating:     ptr(4.8),
			Featured:          true,
		}},
		FeaturedProfessionals: []domain.Professional{},
		Pagination:            query.NewPagination(2, 1, 3),
	}

	testCases := []struct {
		name                 string
		rawQuery             string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:     "Success",
			rawQuery: "?category=plumbing&city=Sofia&page=2&limit=1",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionals", mock.Anything, map[string]string{
					"category": "plumbing",
					"city":     "Sofia",
					"page":     "2",
					"limit":    "1",
				}).Return(page, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, page),
		},
		{
			name:     "First value of a repeated parameter wins",
			rawQuery: "?city=Sofia&city=Varna",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionals", mock.Anything, map[string]string{"city": "Sofia"}).Return(page, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, page),
		},
		{
			name:     "Invalid query parameters",
			rawQuery: "?limit=500",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionals", mock.Anything, mock.Anything).
					Return(nil, &apperrors.QueryValidationError{Errors: []string{"limit must be between 1 and 50"}}).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "invalid query parameters: limit must be between 1 and 50"),
		},
		{
			name:     "Store failure is not exposed",
			rawQuery: "",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionals", mock.Anything, map[string]string{}).
					Return(nil, errors.New("internal.service.professional.GetProfessionals: pq: connection refused")).Once()
			},
			expectedStatusCode:   http.StatusInternalServerError,
			expectedResponseBody: errorJSON(codeInternal, "internal server error"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			rr := env.do(t, http.MethodGet, "/api/professionals"+tc.rawQuery, "", "")

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_GetProfessionalByID(t *testing.T) {
	professional := &domain.Professional{ID: proID, FullName: ptr("Ivan Petrov"), ServiceCategories: []string{"plumbing"}}

	testCases := []struct {
		name                 string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Found",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionalByID", mock.Anything, proID).Return(professional, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, professional),
		},
		{
			name: "Unknown professional is null",
			setupMocks: func(e *testEnv) {
				e.profs.On("GetProfessionalByID", mock.Anything, proID).Return(nil, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `null`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			rr := env.do(t, http.MethodGet, "/api/professionals/"+proID, "", "")

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PostTasks(t *testing.T) {
	const validBody = `{
		"title": "Fix kitchen sink",
		"description": "The kitchen sink drains very slowly since Monday.",
		"category": "plumbing",
		"city": "Sofia",
		"budgetMin": 50,
		"budgetMax": 120,
		"budgetType": "fixed"
	}`

	input := service.CreateTaskInput{
		CustomerID:  customerID,
		Title:       "Fix kitchen sink",
		Description: "The kitchen sink drains very slowly since Monday.",
		Category:    "plumbing",
		City:        "Sofia",
		BudgetMin:   ptr(50.0),
		BudgetMax:   ptr(120.0),
		BudgetType:  domain.BudgetTypeFixed,
	}

	result := &service.CreateTaskResult{
		Task: &domain.Task{
			ID:         taskID,
			Title:      input.Title,
			Category:   "plumbing",
			City:       "Sofia",
			BudgetType: domain.BudgetTypeFixed,
			Status:     domain.TaskStatusOpen,
			CustomerID: customerID,
		},
		PendingReviews: 1,
	}

	testCases := []struct {
		name                 string
		requestBody          string
		userID               string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: validBody,
			userID:      customerID,
			setupMocks: func(e *testEnv) {
				e.tasks.On("CreateTask", mock.Anything, input).Return(result, nil).Once()
			},
			expectedStatusCode:   http.StatusCreated,
			expectedResponseBody: mustJSON(t, result),
		},
		{
			name:                 "Missing token",
			requestBody:          validBody,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusUnauthorized,
			expectedResponseBody: errorJSON(codeUnauthorized, "authentication required"),
		},
		{
			name: "Contact details in description",
			requestBody: `{"title": "Fix kitchen sink", "description": "Call me at 0888 123 456 for details",
				"category": "plumbing", "city": "Sofia"}`,
			userID:               customerID,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "field 'Description' must not contain contact information"),
		},
		{
			name:        "Pending reviews",
			requestBody: validBody,
			userID:      customerID,
			setupMocks: func(e *testEnv) {
				e.tasks.On("CreateTask", mock.Anything, input).
					Return(nil, fmt.Errorf("internal.service.task.CreateTask: %w: 3 pending", apperrors.ErrPendingReviews)).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: errorJSON(codePendingReviews, apperrors.ErrPendingReviews.Error()),
		},
		{
			name:                 "Invalid JSON body",
			requestBody:          `{invalid json}`,
			userID:               customerID,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeInvalidRequest, "invalid request body"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			rr := env.do(t, http.MethodPost, "/api/tasks", tc.requestBody, tc.userID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_GetTask(t *testing.T) {
	task := &domain.Task{ID: taskID, Title: "Fix kitchen sink", Status: domain.TaskStatusOpen, CustomerID: customerID}

	testCases := []struct {
		name                 string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Found",
			setupMocks: func(e *testEnv) {
				e.tasks.On("GetTask", mock.Anything, taskID).Return(task, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Task{"task": task}),
		},
		{
			name: "Not found",
			setupMocks: func(e *testEnv) {
				e.tasks.On("GetTask", mock.Anything, taskID).Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			rr := env.do(t, http.MethodGet, "/api/tasks/"+taskID, "", "")

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PostApplications(t *testing.T) {
	validBody := fmt.Sprintf(`{"taskId": %q, "proposedPrice": 90, "estimatedDurationHours": 6, "message": "I can come tomorrow morning."}`, taskID)

	input := service.SubmitApplicationInput{
		TaskID:                 taskID,
		ProfessionalID:         proID,
		ProposedPrice:          90,
		EstimatedDurationHours: ptr(6.0),
		Message:                "I can come tomorrow morning.",
	}

	app := &domain.Application{
		ID:               appID,
		TaskID:           taskID,
		ProfessionalID:   proID,
		ProposedPrice:    90,
		ProposedTimeline: "same-day",
		Status:           domain.ApplicationStatusPending,
	}

	testCases := []struct {
		name                 string
		requestBody          string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: validBody,
			setupMocks: func(e *testEnv) {
				e.apps.On("Submit", mock.Anything, input).Return(app, nil).Once()
			},
			expectedStatusCode:   http.StatusCreated,
			expectedResponseBody: mustJSON(t, map[string]*domain.Application{"application": app}),
		},
		{
			name:        "Message with contact details",
			requestBody: validBody,
			setupMocks: func(e *testEnv) {
				e.apps.On("Submit", mock.Anything, input).
					Return(nil, fmt.Errorf("internal.service.application.Submit: %w", &apperrors.ContactInfoError{Reason: "phone"})).Once()
			},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeContactInfo, "message contains contact information (phone)"),
		},
		{
			name:        "Duplicate application",
			requestBody: validBody,
			setupMocks: func(e *testEnv) {
				e.apps.On("Submit", mock.Anything, input).
					Return(nil, &apperrors.DuplicateApplicationError{TaskID: taskID, ProfessionalID: proID}).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeAlreadyApplied, "you have already applied to this task"),
		},
		{
			name:        "Own task",
			requestBody: validBody,
			setupMocks: func(e *testEnv) {
				e.apps.On("Submit", mock.Anything, input).Return(nil, apperrors.ErrOwnTask).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeOwnTask, "cannot apply to own task"),
		},
		{
			name:        "Task not found",
			requestBody: validBody,
			setupMocks: func(e *testEnv) {
				e.apps.On("Submit", mock.Anything, input).Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
		{
			name:                 "Malformed task id",
			requestBody:          `{"taskId": "42", "proposedPrice": 90, "timeline": "flexible"}`,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "field 'TaskID' failed on the 'uuid' tag"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			rr := env.do(t, http.MethodPost, "/api/applications", tc.requestBody, proID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PatchApplication(t *testing.T) {
	accepted := &domain.Application{ID: appID, TaskID: taskID, ProfessionalID: proID, Status: domain.ApplicationStatusAccepted}
	rejected := &domain.Application{ID: appID, TaskID: taskID, ProfessionalID: proID, Status: domain.ApplicationStatusRejected, RejectionReason: ptr("found someone")}

	testCases := []struct {
		name                 string
		id                   string
		requestBody          string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Accept",
			requestBody: `{"status": "accepted"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Accept", mock.Anything, appID, customerID).Return(accepted, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Application{"application": accepted}),
		},
		{
			name:        "Reject with reason",
			requestBody: `{"status": "rejected", "rejectionReason": "found someone"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Reject", mock.Anything, appID, customerID, ptr("found someone")).Return(rejected, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Application{"application": rejected}),
		},
		{
			name:                 "Unknown status",
			requestBody:          `{"status": "maybe"}`,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "field 'Status' must be one of [accepted rejected]"),
		},
		{
			name:        "Not the task owner",
			requestBody: `{"status": "accepted"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Accept", mock.Anything, appID, customerID).Return(nil, apperrors.ErrForbidden).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: errorJSON(codeForbidden, "action not allowed for this user"),
		},
		{
			name:        "Another application was accepted first",
			requestBody: `{"status": "accepted"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Accept", mock.Anything, appID, customerID).Return(nil, apperrors.ErrTaskNotOpen).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeTaskNotOpen, "task is not open for applications"),
		},
		{
			name:        "Already responded",
			requestBody: `{"status": "rejected"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Reject", mock.Anything, appID, customerID, (*string)(nil)).Return(nil, apperrors.ErrApplicationNotPending).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeApplicationNotPending, "application is not pending"),
		},
		{
			name:        "Malformed id",
			id:          "abc",
			requestBody: `{"status": "accepted"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Accept", mock.Anything, "abc", customerID).Return(nil, fmt.Errorf("%w: application with id 'abc'", apperrors.ErrNotFound)).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			id := tc.id
			if id == "" {
				id = appID
			}

			rr := env.do(t, http.MethodPatch, "/api/applications/"+id, tc.requestBody, customerID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PatchApplicationWithdraw(t *testing.T) {
	withdrawn := &domain.Application{ID: appID, TaskID: taskID, ProfessionalID: proID, Status: domain.ApplicationStatusWithdrawn}

	testCases := []struct {
		name                 string
		id                   string
		requestBody          string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Empty body",
			requestBody: "",
			setupMocks: func(e *testEnv) {
				e.apps.On("Withdraw", mock.Anything, appID, proID, (*string)(nil)).Return(withdrawn, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Application{"application": withdrawn}),
		},
		{
			name:        "Monthly limit reached",
			requestBody: `{"reason": "double booked"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Withdraw", mock.Anything, appID, proID, ptr("double booked")).
					Return(nil, fmt.Errorf("%w: 3 withdrawals per month", apperrors.ErrWithdrawalQuotaExceeded)).Once()
			},
			expectedStatusCode:   http.StatusTooManyRequests,
			expectedResponseBody: errorJSON(codeWithdrawalLimit, "monthly withdrawal limit reached"),
		},
		{
			name:        "Rejected application",
			requestBody: `{}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("Withdraw", mock.Anything, appID, proID, (*string)(nil)).Return(nil, apperrors.ErrInvalidApplicationStatus).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeInvalidApplicationStatus, "application cannot be withdrawn in its current status"),
		},
		{
			name:        "Malformed id",
			id:          "abc",
			requestBody: "",
			setupMocks: func(e *testEnv) {
				e.apps.On("Withdraw", mock.Anything, "abc", proID, (*string)(nil)).Return(nil, fmt.Errorf("%w: application with id 'abc'", apperrors.ErrNotFound)).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			id := tc.id
			if id == "" {
				id = appID
			}

			rr := env.do(t, http.MethodPatch, "/api/applications/"+id+"/withdraw", tc.requestBody, proID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PatchTaskMarkComplete(t *testing.T) {
	photo := "https://cdn.trudify.com/p/1.jpg"
	completed := &domain.Task{ID: taskID, Status: domain.TaskStatusCompleted, CompletionNotes: ptr("done"), CompletionPhotos: []string{photo}}

	testCases := []struct {
		name                 string
		id                   string
		requestBody          string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: fmt.Sprintf(`{"completionNotes": "done", "completionPhotos": [%q]}`, photo),
			setupMocks: func(e *testEnv) {
				e.tasks.On("MarkComplete", mock.Anything, taskID, proID, ptr("done"), []string{photo}).Return(completed, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Task{"task": completed}),
		},
		{
			name:                 "Photo is not a URL",
			requestBody:          `{"completionPhotos": ["not a url"]}`,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "field 'CompletionPhotos[0]' failed on the 'url' tag"),
		},
		{
			name:        "Already completed",
			requestBody: `{}`,
			setupMocks: func(e *testEnv) {
				e.tasks.On("MarkComplete", mock.Anything, taskID, proID, (*string)(nil), []string(nil)).Return(nil, apperrors.ErrTaskAlreadyCompleted).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeTaskAlreadyCompleted, "task is already completed"),
		},
		{
			name:        "Task still open",
			requestBody: `{}`,
			setupMocks: func(e *testEnv) {
				e.tasks.On("MarkComplete", mock.Anything, taskID, proID, (*string)(nil), []string(nil)).Return(nil, apperrors.ErrInvalidTaskStatus).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: errorJSON(codeInvalidTaskStatus, "task is not in progress"),
		},
		{
			name:        "Malformed id",
			id:          "abc",
			requestBody: "",
			setupMocks: func(e *testEnv) {
				e.tasks.On("MarkComplete", mock.Anything, "abc", proID, (*string)(nil), []string(nil)).Return(nil, fmt.Errorf("%w: task with id 'abc'", apperrors.ErrNotFound)).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			id := tc.id
			if id == "" {
				id = taskID
			}

			rr := env.do(t, http.MethodPatch, "/api/tasks/"+id+"/mark-complete", tc.requestBody, proID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_PostTaskWithdraw(t *testing.T) {
	withdrawn := &domain.Application{ID: appID, TaskID: taskID, ProfessionalID: proID, Status: domain.ApplicationStatusWithdrawn}

	testCases := []struct {
		name                 string
		id                   string
		requestBody          string
		setupMocks           func(*testEnv)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: `{"reason": "emergency", "description": "family matters"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("WithdrawFromTask", mock.Anything, taskID, proID, "emergency", ptr("family matters")).Return(withdrawn, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: mustJSON(t, map[string]*domain.Application{"application": withdrawn}),
		},
		{
			name:                 "Reason is required",
			requestBody:          `{"description": "family matters"}`,
			setupMocks:           func(e *testEnv) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: errorJSON(codeValidation, "field 'Reason' failed on the 'required' tag"),
		},
		{
			name:        "Not the selected professional",
			requestBody: `{"reason": "emergency"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("WithdrawFromTask", mock.Anything, taskID, proID, "emergency", (*string)(nil)).Return(nil, apperrors.ErrForbidden).Once()
			},
			expectedStatusCode:   http.StatusForbidden,
			expectedResponseBody: errorJSON(codeForbidden, "action not allowed for this user"),
		},
		{
			name:        "Malformed id",
			id:          "abc",
			requestBody: `{"reason": "emergency"}`,
			setupMocks: func(e *testEnv) {
				e.apps.On("WithdrawFromTask", mock.Anything, "abc", proID, "emergency", (*string)(nil)).Return(nil, fmt.Errorf("%w: task with id 'abc'", apperrors.ErrNotFound)).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: errorJSON(codeNotFound, "resource not found"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(nil)
			tc.setupMocks(env)

			id := tc.id
			if id == "" {
				id = taskID
			}

			rr := env.do(t, http.MethodPost, "/api/tasks/"+id+"/withdraw", tc.requestBody, proID)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			env.assertExpectations(t)
		})
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	env := newTestEnv(nil)
	env.tasks.On("GetTask", mock.Anything, taskID).Panic("nil pointer").Once()

	rr := env.do(t, http.MethodGet, "/api/tasks/"+taskID, "", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
