package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing
// username. The unique index makes this atomic with the insert itself.
var ErrConflict = errors.New("username already exists")
