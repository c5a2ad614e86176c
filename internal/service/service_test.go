package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository"
	"github.com/sakif/todo-api/internal/repository/memory"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

var errStorage = errors.New("disk on fire")

// brokenDirectory fails every call with errStorage. Embedding the interface
// means any method we don't override would panic on the nil value, which is
// fine: tests only call the ones listed here.
type brokenDirectory struct {
	repository.Directory
}

func (brokenDirectory) CreateUser(context.Context, string, string) (*model.User, error) {
	return nil, errStorage
}

func (brokenDirectory) FindUserByUsername(context.Context, string) (*model.User, error) {
	return nil, errStorage
}

func (brokenDirectory) ListTodos(context.Context, string) ([]model.Todo, error) {
	return nil, errStorage
}

func (brokenDirectory) CompleteTodo(context.Context, string, string) (*model.Todo, error) {
	return nil, errStorage
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestServices wires both services to one fresh in-memory directory.
func newTestServices(t *testing.T) (*UserService, *TodoService) {
	t.Helper()
	dir := memory.New()
	return NewUserService(dir, testLogger()), NewTodoService(dir, testLogger())
}

func mustUser(t *testing.T, users *UserService, username string) *model.User {
	t.Helper()
	u, err := users.Create(context.Background(), "Test User", username)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", username, err)
	}
	return u
}

func mustTodo(t *testing.T, todos *TodoService, user *model.User, title string) *model.Todo {
	t.Helper()
	todo, err := todos.Create(context.Background(), user, title, "2022-03-01T01:10:00")
	if err != nil {
		t.Fatalf("Create(%q) error = %v", title, err)
	}
	return todo
}

var wantDeadline = time.Date(2022, 3, 1, 1, 10, 0, 0, time.UTC)
