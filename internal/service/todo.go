package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/todo-api/internal/apperror"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository"
)

// TodoService manages the todos of an already-resolved user.
//
// Every method takes the *model.User produced by UserService.FindByUsername
// (via the auth.RequireUser middleware); it never looks users up itself.
type TodoService struct {
	dir    repository.Directory
	logger *slog.Logger
}

// NewTodoService creates a TodoService backed by dir.
func NewTodoService(dir repository.Directory, logger *slog.Logger) *TodoService {
	return &TodoService{
		dir:    dir,
		logger: logger,
	}
}

// List returns the user's todos in insertion order.
func (s *TodoService) List(ctx context.Context, user *model.User) ([]model.Todo, error) {
	todos, err := s.dir.ListTodos(ctx, user.ID)
	if err != nil {
		return nil, s.fail(err, "listing todos", user, "")
	}
	return todos, nil
}

// Get returns one of the user's todos, or a Todo NotFound error.
func (s *TodoService) Get(ctx context.Context, user *model.User, id string) (*model.Todo, error) {
	todos, err := s.dir.ListTodos(ctx, user.ID)
	if err != nil {
		return nil, s.fail(err, "getting todo", user, id)
	}
	for i := range todos {
		if todos[i].ID == id {
			return &todos[i], nil
		}
	}
	return nil, apperror.NotFound("Todo", id)
}

// Create adds a todo. deadline is parsed with ParseDeadline.
func (s *TodoService) Create(ctx context.Context, user *model.User, title, deadline string) (*model.Todo, error) {
	due, err := ParseDeadline(deadline)
	if err != nil {
		return nil, err
	}

	todo, err := s.dir.CreateTodo(ctx, user.ID, title, due)
	if err != nil {
		return nil, s.fail(err, "creating todo", user, "")
	}

	s.logger.Info("todo created",
		slog.String("user", user.Username),
		slog.String("id", todo.ID),
	)
	return todo, nil
}

// Update replaces title and deadline. Done and CreatedAt are left alone.
func (s *TodoService) Update(ctx context.Context, user *model.User, id, title, deadline string) (*model.Todo, error) {
	due, err := ParseDeadline(deadline)
	if err != nil {
		return nil, err
	}

	todo, err := s.dir.UpdateTodo(ctx, user.ID, id, title, due)
	if err != nil {
		return nil, s.fail(err, "updating todo", user, id)
	}

	s.logger.Info("todo updated",
		slog.String("user", user.Username),
		slog.String("id", todo.ID),
	)
	return todo, nil
}

// Complete marks the todo done. Completing a done todo is not an error.
func (s *TodoService) Complete(ctx context.Context, user *model.User, id string) (*model.Todo, error) {
	todo, err := s.dir.CompleteTodo(ctx, user.ID, id)
	if err != nil {
		return nil, s.fail(err, "completing todo", user, id)
	}

	s.logger.Info("todo completed",
		slog.String("user", user.Username),
		slog.String("id", todo.ID),
	)
	return todo, nil
}

// Delete removes the todo.
func (s *TodoService) Delete(ctx context.Context, user *model.User, id string) error {
	if err := s.dir.DeleteTodo(ctx, user.ID, id); err != nil {
		return s.fail(err, "deleting todo", user, id)
	}

	s.logger.Info("todo deleted",
		slog.String("user", user.Username),
		slog.String("id", id),
	)
	return nil
}

// fail passes NotFound through untouched (it is an expected outcome, not
// worth an error log) and wraps everything else with the operation name.
func (s *TodoService) fail(err error, op string, user *model.User, id string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	s.logger.Error("failed "+op,
		slog.String("user", user.Username),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w", op, err)
}
