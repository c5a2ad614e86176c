package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/todo-api/internal/apperror"
	"github.com/sakif/todo-api/internal/model"
)

// querier is the subset of *sql.DB and *sql.Tx the helpers need, so the
// same lookup code runs inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const todoColumns = `id, title, done, deadline, created_at`

// ListTodos returns the user's todos in insertion order.
func (db *DB) ListTodos(ctx context.Context, userID string) ([]model.Todo, error) {
	return listTodos(ctx, db.conn, userID)
}

func listTodos(ctx context.Context, q querier, userID string) ([]model.Todo, error) {
	if err := userExists(ctx, q, userID); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing todos for %s: %w", userID, err)
	}
	// CRITICAL: always close rows, an open *sql.Rows holds our only connection.
	defer rows.Close()

	// Never nil: an empty list must encode as [] not null.
	todos := []model.Todo{}
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Done, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning todo row: %w", err)
		}
		todos = append(todos, normalize(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating todo rows: %w", err)
	}

	return todos, nil
}

// CreateTodo appends a new, not-done todo to the user's list.
//
// Times are stored in UTC. t.UTC() also strips Go's monotonic clock
// reading, which would otherwise leak into the stored text.
func (db *DB) CreateTodo(ctx context.Context, userID, title string, deadline time.Time) (*model.Todo, error) {
	todo := &model.Todo{
		ID:        xid.New().String(),
		Title:     title,
		Done:      false,
		Deadline:  deadline.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO todos (id, user_id, title, done, deadline, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			todo.ID,
			userID,
			todo.Title,
			todo.Done,
			todo.Deadline,
			todo.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting todo for %s: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return todo, nil
}

// UpdateTodo overwrites title and deadline. done and created_at are not in
// the SET list, so they can't change here.
func (db *DB) UpdateTodo(ctx context.Context, userID, todoID, title string, deadline time.Time) (*model.Todo, error) {
	var todo *model.Todo
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		todo, err = updateTodo(ctx, tx, userID, todoID,
			`UPDATE todos SET title = ?, deadline = ? WHERE user_id = ? AND id = ?`,
			title, deadline.UTC(), userID, todoID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// CompleteTodo marks the todo done. Running it twice is harmless.
func (db *DB) CompleteTodo(ctx context.Context, userID, todoID string) (*model.Todo, error) {
	var todo *model.Todo
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		todo, err = updateTodo(ctx, tx, userID, todoID,
			`UPDATE todos SET done = 1 WHERE user_id = ? AND id = ?`,
			userID, todoID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo removes one todo. The seq values of the remaining rows are
// untouched, so their order is preserved.
func (db *DB) DeleteTodo(ctx context.Context, userID, todoID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := userExists(ctx, tx, userID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`DELETE FROM todos WHERE user_id = ? AND id = ?`,
			userID, todoID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting todo %s: %w", todoID, err)
		}
		return requireOneRow(result, todoID)
	})
}

// updateTodo runs an UPDATE scoped to (user_id, id) and reads the row back.
// The owner check runs first so the two NotFound cases stay distinct.
func updateTodo(ctx context.Context, tx *sql.Tx, userID, todoID, query string, args ...any) (*model.Todo, error) {
	if err := userExists(ctx, tx, userID); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating todo %s: %w", todoID, err)
	}
	if err := requireOneRow(result, todoID); err != nil {
		return nil, err
	}

	var t model.Todo
	err = tx.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = ? AND id = ?`,
		userID, todoID,
	).Scan(&t.ID, &t.Title, &t.Done, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back todo %s: %w", todoID, err)
	}

	t = normalize(t)
	return &t, nil
}

// requireOneRow turns "0 rows affected" into a Todo NotFound.
func requireOneRow(result sql.Result, todoID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Todo", todoID)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success.
//
// Everything inside fn MUST go through tx: the pool has one connection and
// the transaction is holding it, so a call on db.conn would block forever.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// normalize puts scanned times in UTC so both stores hand back identical
// values for the same input.
func normalize(t model.Todo) model.Todo {
	t.Deadline = t.Deadline.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t
}
