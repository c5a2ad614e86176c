// Package repository declares the storage contract for users and their
// todos. Two implementations exist: repository/memory (the default) and
// repository/sqlite.
package repository

import (
	"context"
	"time"

	"github.com/sakif/todo-api/internal/model"
)

// Directory is the collection of all users, each owning an ordered list of
// todos.
//
// Every method returns copies; mutating a returned value never changes the
// stored record. Implementations must be safe for concurrent use.
//
// Errors:
//   - CreateUser returns apperror.ErrConflict when the username is taken.
//   - Lookups by username, and any todo method given an unknown userID,
//     return apperror.ErrNotFound ("User not found").
//   - Todo methods given an unknown todoID return apperror.ErrNotFound
//     ("Todo not found").
type Directory interface {
	CreateUser(ctx context.Context, name, username string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)

	ListTodos(ctx context.Context, userID string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, userID, title string, deadline time.Time) (*model.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID, title string, deadline time.Time) (*model.Todo, error)
	CompleteTodo(ctx context.Context, userID, todoID string) (*model.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
