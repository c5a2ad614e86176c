package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/todo-api/internal/apperror"
)

// maxBodyBytes caps request bodies; every payload here is two short strings.
const maxBodyBytes = 1 << 20

// createUserRequest is the body of POST /users.
type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// todoRequest is the body of POST /todos and PUT /todos/{id}.
// Deadline stays a string here; the service parses it.
type todoRequest struct {
	Title    string `json:"title" validate:"required"`
	Deadline string `json:"deadline" validate:"required"`
}

// newValidator returns a validator that reports fields by their JSON name,
// so messages read "title is required" rather than "Title is required".
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and checks its validate
// tags. Every failure comes back as an apperror validation error.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}

	if err := v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.ValidationFailed(fe.Field(), describe(fe))
		}
		return apperror.ValidationFailed("body", err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
