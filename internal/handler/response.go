package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same one-field shape:
//   {"error": "Todo not found"}
//
// The message is the AppError's Message, so the wording lives next to the
// code that decides the error kind (see internal/apperror).

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/todo-api/internal/apperror"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once Encode
// writes, any header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status.
//
// Conflict is 400 rather than 409: the API has always answered a taken
// username with Bad Request and clients depend on that.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, true
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest, true
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, true
	}
	return http.StatusInternalServerError, false
}

// writeError translates err into a status code and ErrorResponse.
//
// Typed application errors carry a client-safe message; the looked-up key
// and offending field only go to the debug log. Anything else is a
// bug or a storage failure: it is logged with the request id and the client
// only gets a generic message, never SQL text or file paths.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusFor(err); ok {
			logger.Debug("request rejected",
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				slog.Int("status", status),
				slog.String("error", appErr.Message),
				slog.String("field", appErr.Field),
				slog.String("key", appErr.Key),
			)
			writeJSON(w, status, ErrorResponse{Error: appErr.Message})
			return
		}
	}

	logger.Error("request failed",
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "An internal error occurred",
	})
}

// ErrorWriter returns writeError bound to logger, for middleware such as
// auth.RequireUser that must answer in the API's error format.
func ErrorWriter(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, logger, err)
	}
}
