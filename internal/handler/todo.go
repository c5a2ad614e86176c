package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/todo-api/internal/auth"
	"github.com/sakif/todo-api/internal/middleware"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/service"
)

// errNoUser means a todo route was mounted without auth.RequireUser.
// It is a wiring bug, so it surfaces as a 500.
var errNoUser = errors.New("handler: no resolved user in request context")

// TodoHandler serves the /todos routes. Every route must sit behind
// auth.RequireUser; the handlers read the acting user from the context.
type TodoHandler struct {
	todos    *service.TodoService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(todos *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todos:    todos,
		validate: newValidator(),
		logger:   logger,
	}
}

// HandleList returns the user's todos, oldest first.
//
// HTTP: GET /todos (header username)
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	todos, err := h.todos.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}

	middleware.RecordTodoOperation("list", nil)
	writeJSON(w, http.StatusOK, todos)
}

// HandleCreate adds a todo.
//
// HTTP: POST /todos (header username)
// REQUEST BODY: {"title": "Run", "deadline": "2022-03-01T01:10:00"}
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req todoRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		h.fail(w, r, "create", err)
		return
	}

	todo, err := h.todos.Create(r.Context(), user, req.Title, req.Deadline)
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}

	middleware.RecordTodoOperation("create", nil)
	writeJSON(w, http.StatusCreated, todo)
}

// HandleUpdate replaces a todo's title and deadline.
//
// HTTP: PUT /todos/{id} (header username)
//
// An unknown todo answers 404 before the body is looked at, so a bad body
// for a missing todo is still "Todo not found".
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.todos.Get(r.Context(), user, id); err != nil {
		h.fail(w, r, "update", err)
		return
	}

	var req todoRequest
	if err := decodeAndValidate(w, r, h.validate, &req); err != nil {
		h.fail(w, r, "update", err)
		return
	}

	todo, err := h.todos.Update(r.Context(), user, id, req.Title, req.Deadline)
	if err != nil {
		h.fail(w, r, "update", err)
		return
	}

	middleware.RecordTodoOperation("update", nil)
	writeJSON(w, http.StatusOK, todo)
}

// HandleComplete marks a todo done.
//
// HTTP: PATCH /todos/{id}/done (header username)
func (h *TodoHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	todo, err := h.todos.Complete(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "complete", err)
		return
	}

	middleware.RecordTodoOperation("complete", nil)
	writeJSON(w, http.StatusOK, todo)
}

// HandleDelete removes a todo.
//
// HTTP: DELETE /todos/{id} (header username)
// RESPONSE: 204 No Content: successful deletion, no body
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete", err)
		return
	}

	middleware.RecordTodoOperation("delete", nil)
	w.WriteHeader(http.StatusNoContent)
}

// user fetches the resolved user, answering 500 itself if it is missing.
func (h *TodoHandler) user(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, errNoUser)
		return nil, false
	}
	return user, true
}

func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	middleware.RecordTodoOperation(op, err)
	writeError(w, r, h.logger, err)
}
