// Package repositorytest holds the behaviour every repository.Directory
// implementation must share. Store packages call Run from their own tests:
//
//	func TestDirectory(t *testing.T) {
//	    repositorytest.Run(t, func(t *testing.T) repository.Directory { return memory.New() })
//	}
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/todo-api/internal/apperror"
	"github.com/sakif/todo-api/internal/model"
	"github.com/sakif/todo-api/internal/repository"
)

// Factory returns a fresh, empty directory for one subtest.
type Factory func(t *testing.T) repository.Directory

var deadline = time.Date(2022, 3, 1, 1, 10, 0, 0, time.UTC)

// Run executes the shared suite against the directory returned by newDir.
func Run(t *testing.T, newDir Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, dir repository.Directory)
	}{
		{"CreateUser", testCreateUser},
		{"CreateUser duplicate username", testCreateUserConflict},
		{"FindUserByUsername unknown", testFindUnknownUser},
		{"CreateTodo then ListTodos", testCreateAndList},
		{"ListTodos keeps insertion order", testListOrder},
		{"UpdateTodo touches title and deadline only", testUpdate},
		{"CompleteTodo is idempotent", testCompleteTwice},
		{"DeleteTodo preserves order", testDelete},
		{"todo ops on unknown todo", testUnknownTodo},
		{"todo ops on unknown user", testUnknownUser},
		{"todos are private to their owner", testOwnership},
		{"returned values are copies", testCopies},
		{"concurrent CreateTodo loses nothing", testConcurrentCreate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newDir(t))
		})
	}
}

func mustCreateUser(t *testing.T, dir repository.Directory, name, username string) *model.User {
	t.Helper()
	u, err := dir.CreateUser(context.Background(), name, username)
	require.NoError(t, err, "CreateUser(%q)", username)
	return u
}

func mustCreateTodo(t *testing.T, dir repository.Directory, userID, title string) *model.Todo {
	t.Helper()
	todo, err := dir.CreateTodo(context.Background(), userID, title, deadline)
	require.NoError(t, err, "CreateTodo(%q)", title)
	return todo
}

func titles(todos []model.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.Title
	}
	return out
}

func testCreateUser(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Douglas", u.Name)
	assert.Equal(t, "douglas", u.Username)
	assert.NotNil(t, u.Todos, "Todos must be an empty slice, not nil")
	assert.Empty(t, u.Todos)

	found, err := dir.FindUserByUsername(context.Background(), "douglas")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.NotNil(t, found.Todos)
}

func testCreateUserConflict(t *testing.T, dir repository.Directory) {
	first := mustCreateUser(t, dir, "Douglas", "douglas")

	_, err := dir.CreateUser(context.Background(), "Someone Else", "douglas")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "err = %v, want ErrConflict", err)
	assert.Equal(t, "User already exists!", err.Error())

	// Directory unchanged: the original record still wins the lookup.
	found, err := dir.FindUserByUsername(context.Background(), "douglas")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "Douglas", found.Name)
}

func testFindUnknownUser(t *testing.T, dir repository.Directory) {
	_, err := dir.FindUserByUsername(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "User not found", err.Error())
}

func testCreateAndList(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	before := time.Now().Add(-time.Second)

	todo := mustCreateTodo(t, dir, u.ID, "Run")

	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, "Run", todo.Title)
	assert.False(t, todo.Done)
	assert.True(t, todo.Deadline.Equal(deadline), "Deadline = %v, want %v", todo.Deadline, deadline)
	assert.True(t, todo.CreatedAt.After(before), "CreatedAt = %v, want after %v", todo.CreatedAt, before)

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, todo.ID, todos[0].ID)
	assert.False(t, todos[0].Done)
	assert.True(t, todos[0].CreatedAt.Equal(todo.CreatedAt))

	found, err := dir.FindUserByUsername(context.Background(), "douglas")
	require.NoError(t, err)
	require.Len(t, found.Todos, 1)
	assert.Equal(t, todo.ID, found.Todos[0].ID)
}

func testListOrder(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")

	empty, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 1; i <= 5; i++ {
		mustCreateTodo(t, dir, u.ID, fmt.Sprintf("todo-%d", i))
	}

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"todo-1", "todo-2", "todo-3", "todo-4", "todo-5"}, titles(todos))
}

func testUpdate(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	todo := mustCreateTodo(t, dir, u.ID, "Run")
	_, err := dir.CompleteTodo(context.Background(), u.ID, todo.ID)
	require.NoError(t, err)

	newDeadline := deadline.Add(48 * time.Hour)
	updated, err := dir.UpdateTodo(context.Background(), u.ID, todo.ID, "Run 5k", newDeadline)
	require.NoError(t, err)

	assert.Equal(t, todo.ID, updated.ID)
	assert.Equal(t, "Run 5k", updated.Title)
	assert.True(t, updated.Deadline.Equal(newDeadline))
	assert.True(t, updated.CreatedAt.Equal(todo.CreatedAt), "CreatedAt changed")
	assert.True(t, updated.Done, "Done must survive an update")

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Run 5k", todos[0].Title)
}

func testCompleteTwice(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	todo := mustCreateTodo(t, dir, u.ID, "Run")

	for i := 0; i < 2; i++ {
		done, err := dir.CompleteTodo(context.Background(), u.ID, todo.ID)
		require.NoError(t, err, "CompleteTodo call %d", i+1)
		assert.True(t, done.Done)
		assert.Equal(t, "Run", done.Title)
	}
}

func testDelete(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	a := mustCreateTodo(t, dir, u.ID, "a")
	b := mustCreateTodo(t, dir, u.ID, "b")
	c := mustCreateTodo(t, dir, u.ID, "c")

	require.NoError(t, dir.DeleteTodo(context.Background(), u.ID, b.ID))

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, titles(todos))
	assert.Equal(t, a.ID, todos[0].ID)
	assert.Equal(t, c.ID, todos[1].ID)

	err = dir.DeleteTodo(context.Background(), u.ID, b.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete err = %v", err)
	_, err = dir.CompleteTodo(context.Background(), u.ID, b.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "complete after delete err = %v", err)
}

func testUnknownTodo(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	ctx := context.Background()

	_, err := dir.UpdateTodo(ctx, u.ID, "missing", "x", deadline)
	assertTodoNotFound(t, err)
	_, err = dir.CompleteTodo(ctx, u.ID, "missing")
	assertTodoNotFound(t, err)
	err = dir.DeleteTodo(ctx, u.ID, "missing")
	assertTodoNotFound(t, err)
}

func testUnknownUser(t *testing.T, dir repository.Directory) {
	ctx := context.Background()

	_, err := dir.ListTodos(ctx, "nobody")
	assertUserNotFound(t, err)
	_, err = dir.CreateTodo(ctx, "nobody", "x", deadline)
	assertUserNotFound(t, err)
	_, err = dir.UpdateTodo(ctx, "nobody", "x", "x", deadline)
	assertUserNotFound(t, err)
	_, err = dir.CompleteTodo(ctx, "nobody", "x")
	assertUserNotFound(t, err)
	err = dir.DeleteTodo(ctx, "nobody", "x")
	assertUserNotFound(t, err)
}

func testOwnership(t *testing.T, dir repository.Directory) {
	alice := mustCreateUser(t, dir, "Alice", "alice")
	bob := mustCreateUser(t, dir, "Bob", "bob")
	todo := mustCreateTodo(t, dir, alice.ID, "alice's")

	_, err := dir.CompleteTodo(context.Background(), bob.ID, todo.ID)
	assertTodoNotFound(t, err)
	err = dir.DeleteTodo(context.Background(), bob.ID, todo.ID)
	assertTodoNotFound(t, err)

	bobs, err := dir.ListTodos(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	alices, err := dir.ListTodos(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, alices, 1)
	assert.False(t, alices[0].Done)
}

func testCopies(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")
	mustCreateTodo(t, dir, u.ID, "Run")

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	todos[0].Title = "mutated"
	todos[0].Done = true

	again, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", again[0].Title)
	assert.False(t, again[0].Done)
}

func testConcurrentCreate(t *testing.T, dir repository.Directory) {
	u := mustCreateUser(t, dir, "Douglas", "douglas")

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := dir.CreateTodo(context.Background(), u.ID, fmt.Sprintf("todo-%d", i), deadline)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	todos, err := dir.ListTodos(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, todos, n)
}

func assertTodoNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "err = %v, want ErrNotFound", err)
	assert.Equal(t, "Todo not found", err.Error())
}

func assertUserNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "err = %v, want ErrNotFound", err)
	assert.Equal(t, "User not found", err.Error())
}
