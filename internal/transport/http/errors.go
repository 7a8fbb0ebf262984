package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/validation"
	"github.com/trudify/trudify-core/pkg/logger/sl"
)

type errorCode string

const (
	codeInvalidRequest           errorCode = "INVALID_REQUEST"
	codeValidation               errorCode = "VALIDATION_ERROR"
	codeContactInfo              errorCode = "CONTACT_INFO_NOT_ALLOWED"
	codeUnauthorized             errorCode = "UNAUTHORIZED"
	codeForbidden                errorCode = "FORBIDDEN"
	codeNotFound                 errorCode = "NOT_FOUND"
	codeAlreadyApplied           errorCode = "ALREADY_APPLIED"
	codeOwnTask                  errorCode = "OWN_TASK"
	codeTaskNotOpen              errorCode = "TASK_NOT_OPEN"
	codeApplicationNotPending    errorCode = "APPLICATION_NOT_PENDING"
	codeInvalidApplicationStatus errorCode = "INVALID_APPLICATION_STATUS"
	codeWithdrawalLimit          errorCode = "WITHDRAWAL_LIMIT_REACHED"
	codeTaskAlreadyCompleted     errorCode = "TASK_ALREADY_COMPLETED"
	codeInvalidTaskStatus        errorCode = "INVALID_TASK_STATUS"
	codePendingReviews           errorCode = "PENDING_REVIEWS"
	codeRateLimited              errorCode = "RATE_LIMITED"
	codeInternal                 errorCode = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) respondAPIError(w http.ResponseWriter, code int, apiCode errorCode, message string) {
	s.respond(w, code, errorResponse{Error: errorBody{Code: apiCode, Message: message}})
}

// handleServiceError logs err and maps it to a status and error code.
// Unknown errors never expose their message.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)

	var (
		validationErr *validation.ValidationError
		queryErr      *apperrors.QueryValidationError
		contactErr    *apperrors.ContactInfoError
		duplicateErr  *apperrors.DuplicateApplicationError
	)

	status, code, message := http.StatusInternalServerError, codeInternal, "internal server error"

	switch {
	case errors.As(err, &validationErr):
		status, code, message = http.StatusBadRequest, codeValidation, validationErr.Error()
	case errors.As(err, &queryErr):
		status, code, message = http.StatusBadRequest, codeValidation, queryErr.Error()
	case errors.As(err, &contactErr):
		status, code, message = http.StatusBadRequest, codeContactInfo, contactErr.Error()
	case errors.Is(err, apperrors.ErrValidation):
		status, code, message = http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, apperrors.ErrInvalidRequest):
		status, code, message = http.StatusBadRequest, codeInvalidRequest, apperrors.ErrInvalidRequest.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, codeUnauthorized, apperrors.ErrUnauthorized.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		status, code, message = http.StatusForbidden, codeForbidden, apperrors.ErrForbidden.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, codeNotFound, apperrors.ErrNotFound.Error()
	case errors.As(err, &duplicateErr):
		status, code, message = http.StatusConflict, codeAlreadyApplied, "you have already applied to this task"
	case errors.Is(err, apperrors.ErrOwnTask):
		status, code, message = http.StatusConflict, codeOwnTask, apperrors.ErrOwnTask.Error()
	case errors.Is(err, apperrors.ErrTaskNotOpen):
		status, code, message = http.StatusConflict, codeTaskNotOpen, apperrors.ErrTaskNotOpen.Error()
	case errors.Is(err, apperrors.ErrApplicationNotPending):
		status, code, message = http.StatusConflict, codeApplicationNotPending, apperrors.ErrApplicationNotPending.Error()
	case errors.Is(err, apperrors.ErrInvalidApplicationStatus):
		status, code, message = http.StatusConflict, codeInvalidApplicationStatus, apperrors.ErrInvalidApplicationStatus.Error()
	case errors.Is(err, apperrors.ErrWithdrawalQuotaExceeded):
		status, code, message = http.StatusTooManyRequests, codeWithdrawalLimit, apperrors.ErrWithdrawalQuotaExceeded.Error()
	case errors.Is(err, apperrors.ErrTaskAlreadyCompleted):
		status, code, message = http.StatusConflict, codeTaskAlreadyCompleted, apperrors.ErrTaskAlreadyCompleted.Error()
	case errors.Is(err, apperrors.ErrInvalidTaskStatus):
		status, code, message = http.StatusConflict, codeInvalidTaskStatus, apperrors.ErrInvalidTaskStatus.Error()
	case errors.Is(err, apperrors.ErrPendingReviews):
		status, code, message = http.StatusForbidden, codePendingReviews, apperrors.ErrPendingReviews.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error("service error occurred", sl.Err(err))
	} else {
		log.Warn("request rejected", slog.String("code", string(code)), sl.Err(err))
	}

	s.respondAPIError(w, status, code, message)
}
