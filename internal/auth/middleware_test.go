package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/todo-api/internal/model"
)

var errUnknown = errors.New("unknown user")

type finderFunc func(ctx context.Context, username string) (*model.User, error)

func (f finderFunc) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return f(ctx, username)
}

// onlyDouglas knows exactly one account.
var onlyDouglas = finderFunc(func(_ context.Context, username string) (*model.User, error) {
	if username == "douglas" {
		return &model.User{ID: "u1", Username: "douglas"}, nil
	}
	return nil, errUnknown
})

func writeStatus(w http.ResponseWriter, _ *http.Request, err error) {
	if errors.Is(err, errUnknown) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
}

func TestRequireUser_KnownUser(t *testing.T) {
	var got *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set(HeaderUsername, "douglas")
	rr := httptest.NewRecorder()

	RequireUser(onlyDouglas, writeStatus)(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
}

func TestRequireUser_StopsChain(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"unknown user", "ghost"},
		{"missing header", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodDelete, "/todos/abc", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUsername, tt.header)
			}
			rr := httptest.NewRecorder()

			RequireUser(onlyDouglas, writeStatus)(next).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.False(t, called, "next handler must not run for an unresolved user")
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	user, ok := UserFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, user)
}
