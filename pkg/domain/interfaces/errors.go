package interfaces

import "errors"

// ErrNotFound is the parent of every backend's not-found error.
var ErrNotFound = errors.New("not found")
