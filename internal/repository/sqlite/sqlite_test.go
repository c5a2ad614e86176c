package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/todo-api/internal/repository"
	"github.com/sakif/todo-api/internal/repository/repositorytest"
)

// newTestDB opens a fresh ":memory:" database that is closed when the test
// ends. t.Helper() makes failures point at the caller's line.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDirectory(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) repository.Directory {
		return newTestDB(t)
	})
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	db.Close()
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close() should fail")
	}
}

// Migrations use IF NOT EXISTS, so reopening a file keeps its data.
func TestReopenFile_KeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")
	deadline := time.Date(2022, 3, 1, 1, 10, 0, 0, time.UTC)

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	u, err := db.CreateUser(context.Background(), "Douglas", "douglas")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := db.CreateTodo(context.Background(), u.ID, "Run", deadline); err != nil {
		t.Fatalf("CreateTodo() error = %v", err)
	}
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("New() (reopen) error = %v", err)
	}
	defer db.Close()

	found, err := db.FindUserByUsername(context.Background(), "douglas")
	if err != nil {
		t.Fatalf("FindUserByUsername() error = %v", err)
	}
	if len(found.Todos) != 1 {
		t.Fatalf("len(Todos) = %d, want 1", len(found.Todos))
	}
	if !found.Todos[0].Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", found.Todos[0].Deadline, deadline)
	}
}
