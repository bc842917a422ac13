package handlers

import (
	"errors"
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch services.GetErrorType(err) {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, message(err))

	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, message(err), details)

	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, message(err))

	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, message(err))

	case services.ErrorTypeConflict:
		writeErr = utils.WriteConflict(w, message(err), details)

	case services.ErrorTypeRateLimited:
		writeErr = utils.WriteTooManyRequests(w, message(err), details)

	case services.ErrorTypeInternal:
		// Log the cause but return a generic message
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var details map[string]interface{}
	msg := err.Error()

	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		msg = "Validation failed"
	}

	if err := utils.WriteBadRequest(w, msg, details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// message returns the client-facing text of a domain error without its cause
func message(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
