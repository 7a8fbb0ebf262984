// Package http implements the HTTP transport layer for the marketplace.
// It decodes requests, calls the services and maps their results and errors
// to JSON responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/query"
	"github.com/trudify/trudify-core/internal/service"
	"github.com/trudify/trudify-core/internal/validation"
	"github.com/trudify/trudify-core/pkg/logger/sl"
	"github.com/trudify/trudify-core/swagger"
	"github.com/ulule/limiter/v3"
)

type Services struct {
	Professionals service.ProfessionalService
	Tasks         service.TaskService
	Applications  service.ApplicationService
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	log          *slog.Logger
	profService  service.ProfessionalService
	taskService  service.TaskService
	appService   service.ApplicationService
	tokens       TokenVerifier
	writeLimiter *limiter.Limiter
}

// NewServer creates the HTTP server. A nil writeLimiter disables rate
// limiting of write routes.
func NewServer(log *slog.Logger, services Services, tokens TokenVerifier, writeLimiter *limiter.Limiter) *Server {
	return &Server{
		log:          log,
		profService:  services.Professionals,
		taskService:  services.Tasks,
		appService:   services.Applications,
		tokens:       tokens,
		writeLimiter: writeLimiter,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	swaggerHandler, err := swagger.GetHandler()
	if err != nil {
		s.log.Error("failed to get swagger handler", sl.Err(err))
	} else {
		mux.Mount("/swagger", http.StripPrefix("/swagger", swaggerHandler))
	}

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(r chi.Router) {
		r.Get("/professionals", s.GetProfessionals)
		r.Get("/professionals/{id}", s.GetProfessionalByID)
		r.Get("/tasks/{id}", s.GetTask)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.rateLimit)

			r.Post("/tasks", s.PostTasks)
			r.Patch("/tasks/{id}/mark-complete", s.PatchTaskMarkComplete)
			r.Post("/tasks/{id}/withdraw", s.PostTaskWithdraw)

			r.Post("/applications", s.PostApplications)
			r.Patch("/applications/{id}", s.PatchApplication)
			r.Patch("/applications/{id}/withdraw", s.PatchApplicationWithdraw)
		})
	})

	return mux
}

func (s *Server) GetProfessionals(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetProfessionals"

	page, err := s.profService.GetProfessionals(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, page)
}

// GetProfessionalByID answers with null for unknown professionals.
func (s *Server) GetProfessionalByID(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetProfessionalByID"

	professional, err := s.profService.GetProfessionalByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, professional)
}

func (s *Server) PostTasks(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostTasks"

	var req createTaskRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	result, err := s.taskService.CreateTask(r.Context(), service.CreateTaskInput{
		CustomerID:   userIDFrom(r.Context()),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		City:         req.City,
		Neighborhood: req.Neighborhood,
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
		BudgetType:   domain.BudgetType(req.BudgetType),
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, result)
}

func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetTask"

	task, err := s.taskService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Task{"task": task})
}

func (s *Server) PatchTaskMarkComplete(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PatchTaskMarkComplete"

	var req markCompleteRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	task, err := s.taskService.MarkComplete(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()), req.CompletionNotes, req.CompletionPhotos)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Task{"task": task})
}

func (s *Server) PostTaskWithdraw(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostTaskWithdraw"

	var req withdrawFromTaskRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	app, err := s.appService.WithdrawFromTask(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()), req.Reason, req.Description)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Application{"application": app})
}

func (s *Server) PostApplications(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostApplications"

	var req submitApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	app, err := s.appService.Submit(r.Context(), service.SubmitApplicationInput{
		TaskID:                 req.TaskID,
		ProfessionalID:         userIDFrom(r.Context()),
		ProposedPrice:          req.ProposedPrice,
		Timeline:               req.Timeline,
		EstimatedDurationHours: req.EstimatedDurationHours,
		Message:                req.Message,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*domain.Application{"application": app})
}

// PatchApplication lets the task owner accept or reject an application.
func (s *Server) PatchApplication(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PatchApplication"

	var req updateApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var (
		app        *domain.Application
		err        error
		id         = chi.URLParam(r, "id")
		customerID = userIDFrom(r.Context())
	)

	switch domain.ApplicationStatus(req.Status) {
	case domain.ApplicationStatusAccepted:
		app, err = s.appService.Accept(r.Context(), id, customerID)
	default:
		app, err = s.appService.Reject(r.Context(), id, customerID, req.RejectionReason)
	}

	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Application{"application": app})
}

func (s *Server) PatchApplicationWithdraw(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PatchApplicationWithdraw"

	var req withdrawApplicationRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	app, err := s.appService.Withdraw(r.Context(), chi.URLParam(r, "id"), userIDFrom(r.Context()), req.Reason)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Application{"application": app})
}

// respond encodes data as JSON. A nil pointer is written as null.
func (s *Server) respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// decodeAndValidate deserializes a JSON request body into v and runs the
// validation tags on it.
func (s *Server) decodeAndValidate(r *http.Request, v any) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode treats an empty body as an empty object; required fields are
// caught by validation.
func (s *Server) decode(body io.ReadCloser, v any) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}
