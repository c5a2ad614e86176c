package service

import (
	"strings"
	"time"

	"github.com/sakif/todo-api/internal/apperror"
)

// deadlineLayouts are tried in order. Layouts without a zone are read as
// UTC, so "2022-03-01T01:10:00" means the same instant on every server.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline turns a client-supplied date/time string into a UTC
// timestamp. Past dates are accepted; only unparseable input is rejected.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperror.ValidationFailed("deadline", "deadline is required")
	}

	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.ValidationFailed("deadline", "deadline must be a valid date")
}
