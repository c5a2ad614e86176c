// Package memory implements repository.Directory on two maps (users by
// username and by id); each user's todos are a slice in insertion order.
// Users themselves are unordered.
//
// Nothing survives a restart. All state sits behind one sync.RWMutex:
// lookups take the read lock, every mutation takes the write lock, so a
// user's todo slice is never appended to and spliced at the same time.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/todo-api/internal/apperror"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository"
)

var _ repository.Directory = (*Store)(nil)

// Store is the in-memory directory.
//
// byUsername and byID hold pointers to the same records, so a mutation
// through one index is visible through the other.
type Store struct {
	mu         sync.RWMutex
	byUsername map[string]*model.User
	byID       map[string]*model.User

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byUsername: make(map[string]*model.User),
		byID:       make(map[string]*model.User),
		now:        time.Now,
	}
}

// Ping always succeeds; it exists so /health treats both stores alike.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, name, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return nil, apperror.Conflict("User", username)
	}

	u := &model.User{
		ID:       xid.New().String(),
		Name:     name,
		Username: username,
		Todos:    []model.Todo{},
	}
	s.byUsername[username] = u
	s.byID[u.ID] = u

	return u.Clone(), nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, apperror.NotFound("User", username)
	}
	return u.Clone(), nil
}

func (s *Store) ListTodos(_ context.Context, userID string) ([]model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, apperror.NotFound("User", userID)
	}
	todos := make([]model.Todo, len(u.Todos))
	copy(todos, u.Todos)
	return todos, nil
}

func (s *Store) CreateTodo(_ context.Context, userID, title string, deadline time.Time) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, apperror.NotFound("User", userID)
	}

	todo := model.Todo{
		ID:        xid.New().String(),
		Title:     title,
		Done:      false,
		Deadline:  deadline.UTC(),
		CreatedAt: s.now().UTC(),
	}
	u.Todos = append(u.Todos, todo)

	return &todo, nil
}

func (s *Store) UpdateTodo(_ context.Context, userID, todoID, title string, deadline time.Time) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, err := s.findTodo(userID, todoID)
	if err != nil {
		return nil, err
	}
	todo.Title = title
	todo.Deadline = deadline.UTC()

	out := *todo
	return &out, nil
}

func (s *Store) CompleteTodo(_ context.Context, userID, todoID string) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, err := s.findTodo(userID, todoID)
	if err != nil {
		return nil, err
	}
	todo.Done = true

	out := *todo
	return &out, nil
}

func (s *Store) DeleteTodo(_ context.Context, userID, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return apperror.NotFound("User", userID)
	}
	i := indexOf(u.Todos, todoID)
	if i < 0 {
		return apperror.NotFound("Todo", todoID)
	}

	// Shift the tail left instead of swapping with the last element so the
	// remaining todos keep their order.
	u.Todos = append(u.Todos[:i], u.Todos[i+1:]...)
	return nil
}

// findTodo returns a pointer into the owner's slice. Callers must hold the
// write lock and must not keep the pointer past unlocking.
func (s *Store) findTodo(userID, todoID string) (*model.Todo, error) {
	u, ok := s.byID[userID]
	if !ok {
		return nil, apperror.NotFound("User", userID)
	}
	i := indexOf(u.Todos, todoID)
	if i < 0 {
		return nil, apperror.NotFound("Todo", todoID)
	}
	return &u.Todos[i], nil
}

func indexOf(todos []model.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
