// Package model defines the records shared by every layer of the API.
package model

// User is a registered account. Username is the external lookup key and
// is unique across the directory; the user owns its Todos in insertion
// order.
//
// WHY Todos IS NEVER NIL:
// encoding/json writes a nil slice as `null`. Clients expect `"todos": []`
// for a fresh account, so stores always hand back an allocated slice.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Todos    []Todo `json:"todos"`
}

// Clone returns a deep copy so callers cannot reach into stored state.
func (u *User) Clone() *User {
	c := *u
	c.Todos = make([]Todo, len(u.Todos))
	copy(c.Todos, u.Todos)
	return &c
}
