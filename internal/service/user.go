// Package service contains the business logic of the todo API.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → enforces rules, parses deadlines, logs business events
//	Directory       → stores users and todos (memory or sqlite)
//
// Services accept primitives and domain types, never *http.Request, so the
// same rules apply no matter who calls them.
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

// UserService registers users and resolves them by username.
type UserService struct {
	dir    repository.Directory
	logger *slog.Logger
}

// NewUserService creates a UserService backed by dir.
func NewUserService(dir repository.Directory, logger *slog.Logger) *UserService {
	return &UserService{
		dir:    dir,
		logger: logger,
	}
}

// Create registers a new user. A taken username yields apperror.ErrConflict.
//
// Name and username are stored exactly as given: the username is the lookup
// key for the `username` header, and trimming one side but not the other
// would make an account unreachable.
func (s *UserService) Create(ctx context.Context, name, username string) (*model.User, error) {
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	user, err := s.dir.CreateUser(ctx, name, username)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("username already taken", slog.String("username", username))
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// FindByUsername resolves the acting user for a todo request. It is the
// whole of the access check: whoever knows a username acts as that user.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, apperror.NotFound("User", username)
	}

	user, err := s.dir.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to look up user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}
