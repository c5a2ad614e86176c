package model

import "time"

// Todo is a single item owned by exactly one User.
//
// CreatedAt is stamped once by the store and never changes. Done only ever
// goes from false to true; there is no "undo" operation.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
}
