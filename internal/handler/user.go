package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/todo-api/internal/middleware"
	"github.com/sakif/todo-api/internal/service"
)

// UserHandler serves account registration.
type UserHandler struct {
	users    *service.UserService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		validate: newValidator(),
		logger:   logger,
	}
}

// HandleCreate registers a user.
//
// HTTP: POST /users
// REQUEST BODY: {"name": "Douglas", "username": "douglas"}
// RESPONSE: 201 {"id": "...", "name": "Douglas", "username": "douglas", "todos": []}
//
// A taken username answers 400 {"error": "User already exists!"}.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		middleware.RecordTodoOperation("create_user", err)
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Username)
	middleware.RecordTodoOperation("create_user", err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}
