// Package auth resolves the acting user of a request.
//
// THIS IS NOT AUTHENTICATION:
// The caller names themselves in the `username` header and we believe them.
// RequireUser is a capability check ("does this account exist?"), run once
// at the top of every todo route so handlers never see an unresolved user.
package auth

import (
	"context"
	"net/http"

	"github.com/sakif/todo-api/internal/model"
)

// HeaderUsername is the request header that names the acting user.
const HeaderUsername = "username"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. Using a package-private type
// means only THIS package can read or write the user stored under it.
type contextKey string

const userKey contextKey = "user"

// UserFinder is the lookup RequireUser needs. *service.UserService
// satisfies it.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// RequireUser resolves the `username` header to a user and stores it in the
// request context. If the lookup fails, onError writes the response and the
// chain stops, so no handler (and no mutation) runs for an unknown user.
//
// onError is injected so this package doesn't need to know the API's error
// format; the server passes the handler package's error writer.
func RequireUser(users UserFinder, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := users.FindByUsername(r.Context(), r.Header.Get(HeaderUsername))
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireUser.
//
// Returns (nil, false) if the route was not wrapped in RequireUser.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
