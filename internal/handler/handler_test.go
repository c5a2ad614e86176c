package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/todo-api/internal/auth"
	"github.com/sakif/todo-api/internal/handler"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository/memory"
	"github.com/sakif/todo-api/internal/service"
)

type fixture struct {
	router http.Handler
}

// newFixture wires the handlers the way the server does, minus the
// ambient middleware, on a fresh in-memory store.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newFixtureWithLogger(t *testing.T, logger *slog.Logger) *fixture {
	t.Helper()
	dir := memory.New()
	users := service.NewUserService(dir, logger)
	todos := service.NewTodoService(dir, logger)
	uh := handler.NewUserHandler(users, logger)
	th := handler.NewTodoHandler(todos, logger)

	r := chi.NewRouter()
	r.Post("/users", uh.HandleCreate)
	r.Route("/todos", func(r chi.Router) {
		r.Use(auth.RequireUser(users, handler.ErrorWriter(logger)))
		r.Get("/", th.HandleList)
		r.Post("/", th.HandleCreate)
		r.Put("/{id}", th.HandleUpdate)
		r.Patch("/{id}/done", th.HandleComplete)
		r.Delete("/{id}", th.HandleDelete)
	})

	return &fixture{router: r}
}

func (f *fixture) serve(method, path, username, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if username != "" {
		req.Header.Set(auth.HeaderUsername, username)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) createTodo(t *testing.T, username, title string) model.Todo {
	t.Helper()
	rr := f.serve(http.MethodPost, "/todos", username, `{"title":"`+title+`","deadline":"2022-03-01T01:10:00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var todo model.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	return todo
}

func TestUserHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"valid", `{"name":"Douglas","username":"douglas"}`, http.StatusCreated, ""},
		{"invalid JSON", `{"name":`, http.StatusBadRequest, "Invalid JSON body"},
		{"missing username", `{"name":"Douglas"}`, http.StatusBadRequest, "username is required"},
		{"missing name", `{"username":"douglas"}`, http.StatusBadRequest, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rr := f.serve(http.MethodPost, "/users", "", tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.wantError != "" {
				assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, rr.Body.String())
			}
		})
	}
}

func TestUserHandler_DuplicateIs400(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.serve(http.MethodPost, "/users", "", `{"name":"A","username":"douglas"}`).Code)

	rr := f.serve(http.MethodPost, "/users", "", `{"name":"B","username":"douglas"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"User already exists!"}`, rr.Body.String())
}

func TestTodoHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing title", `{"deadline":"2022-03-01"}`, "title is required"},
		{"missing deadline", `{"title":"Run"}`, "deadline is required"},
		{"unparseable deadline", `{"title":"Run","deadline":"soon"}`, "deadline must be a valid date"},
		{"invalid JSON", `not json`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)

			rr := f.serve(http.MethodPost, "/todos", "douglas", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, rr.Body.String())

			list := f.serve(http.MethodGet, "/todos", "douglas", "")
			assert.JSONEq(t, `[]`, list.Body.String(), "rejected create must not store anything")
		})
	}
}

func TestTodoHandler_UnknownTodo(t *testing.T) {
	f := newFixture(t)
	f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)

	requests := []struct{ method, path, body string }{
		{http.MethodPut, "/todos/missing", `{"title":"x","deadline":"2022-03-01"}`},
		{http.MethodPatch, "/todos/missing/done", ""},
		{http.MethodDelete, "/todos/missing", ""},
	}
	for _, req := range requests {
		rr := f.serve(req.method, req.path, "douglas", req.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", req.method, req.path)
		assert.JSONEq(t, `{"error":"Todo not found"}`, rr.Body.String())
	}
}

// The todo lookup comes before body validation on update.
func TestTodoHandler_UpdateUnknownTodoIgnoresBody(t *testing.T) {
	bodies := map[string]string{
		"missing deadline":     `{"title":"x"}`,
		"unparseable deadline": `{"title":"x","deadline":"soon"}`,
		"invalid JSON":         `not json`,
		"empty body":           ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)

			rr := f.serve(http.MethodPut, "/todos/missing", "douglas", body)

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.JSONEq(t, `{"error":"Todo not found"}`, rr.Body.String())
		})
	}
}

func TestTodoHandler_UpdateValidatesBodyOfExistingTodo(t *testing.T) {
	f := newFixture(t)
	f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)
	todo := f.createTodo(t, "douglas", "Run")

	rr := f.serve(http.MethodPut, "/todos/"+todo.ID, "douglas", `{"title":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"deadline is required"}`, rr.Body.String())
}

// One user cannot see or touch another user's todos, even by id.
func TestTodoHandler_IsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	f.serve(http.MethodPost, "/users", "", `{"name":"Alice","username":"alice"}`)
	f.serve(http.MethodPost, "/users", "", `{"name":"Bob","username":"bob"}`)
	todo := f.createTodo(t, "alice", "secret")

	assert.Equal(t, http.StatusNotFound, f.serve(http.MethodPatch, "/todos/"+todo.ID+"/done", "bob", "").Code)
	assert.Equal(t, http.StatusNotFound, f.serve(http.MethodDelete, "/todos/"+todo.ID, "bob", "").Code)
	assert.JSONEq(t, `[]`, f.serve(http.MethodGet, "/todos", "bob", "").Body.String())

	var alices []model.Todo
	require.NoError(t, json.Unmarshal(f.serve(http.MethodGet, "/todos", "alice", "").Body.Bytes(), &alices))
	require.Len(t, alices, 1)
	assert.False(t, alices[0].Done)
}

func TestTodoHandler_ListKeepsOrderAfterDelete(t *testing.T) {
	f := newFixture(t)
	f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)
	a := f.createTodo(t, "douglas", "a")
	b := f.createTodo(t, "douglas", "b")
	c := f.createTodo(t, "douglas", "c")

	require.Equal(t, http.StatusNoContent, f.serve(http.MethodDelete, "/todos/"+b.ID, "douglas", "").Code)

	var list []model.Todo
	require.NoError(t, json.Unmarshal(f.serve(http.MethodGet, "/todos", "douglas", "").Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

// Without RequireUser in front, the handler has no user and must not guess.
func TestTodoHandler_MissingMiddlewareIs500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	th := handler.NewTodoHandler(service.NewTodoService(memory.New(), logger), logger)

	rr := httptest.NewRecorder()
	th.HandleList(rr, httptest.NewRequest(http.MethodGet, "/todos", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"An internal error occurred"}`, rr.Body.String())
}

func TestErrorWriter_HidesInternalErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rr := httptest.NewRecorder()

	handler.ErrorWriter(logger)(rr, httptest.NewRequest(http.MethodGet, "/todos", nil),
		errors.New("sqlite: database is locked at /var/lib/todos.db"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "sqlite")
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ping       error
		wantStatus int
		wantStore  string
	}{
		{"store up", nil, http.StatusOK, "ok"},
		{"store down", errors.New("sql: database is closed"), http.StatusServiceUnavailable, "down: sql: database is closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(pingerFunc(func(context.Context) error { return tt.ping }))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantStore, body.Checks["store"])
		})
	}
}

func TestWriteError_LogsKeyAndField(t *testing.T) {
	var buf bytes.Buffer
	f := newFixtureWithLogger(t, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	f.serve(http.MethodPost, "/users", "", `{"name":"Douglas","username":"douglas"}`)

	rr := f.serve(http.MethodPatch, "/todos/no-such-id/done", "douglas", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, buf.String(), "key=no-such-id")
	assert.NotContains(t, rr.Body.String(), "no-such-id")

	buf.Reset()
	rr = f.serve(http.MethodPost, "/todos", "douglas", `{"title":"Run"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, buf.String(), "field=deadline")
}
