package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrMemoryNotFound = errors.New("memory not found")
	ErrAccessDenied   = errors.New("access denied to memory")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Context keys for error values
const (
	MemoryIDKey = "memory_id"
	UserIDKey   = "user_id"
)
