package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/todo-api/internal/apperror"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository"
)

// compile-time check that *DB implements repository.Directory
var _ repository.Directory = (*DB)(nil)

// CreateUser inserts a new user with an empty todo list.
//
// UNIQUENESS:
// We don't SELECT first and INSERT second: two requests could both see
// "free" and race. The UNIQUE constraint on users.username is the single
// source of truth; a constraint violation is translated to a Conflict.
func (db *DB) CreateUser(ctx context.Context, name, username string) (*model.User, error) {
	user := &model.User{
		ID:       xid.New().String(),
		Name:     name,
		Username: username,
		Todos:    []model.Todo{},
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, username) VALUES (?, ?, ?)`,
		user.ID,
		user.Name,
		user.Username,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("User", username)
		}
		return nil, fmt.Errorf("sqlite: inserting user %q: %w", username, err)
	}

	return user, nil
}

// FindUserByUsername loads a user together with their todos.
// Returns apperror.ErrNotFound if no user has that username.
func (db *DB) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, username FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Name, &u.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}

	u.Todos, err = db.ListTodos(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// userExists is shared by the todo methods so an unknown owner is reported
// as "User not found" rather than "Todo not found".
func userExists(ctx context.Context, q querier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("User", userID)
		}
		return fmt.Errorf("sqlite: checking user %s: %w", userID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
