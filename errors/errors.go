package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIntent indicates the classifier produced a tag outside the known intents
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrEmptyResponse indicates the text-generation capability returned nothing usable
	ErrEmptyResponse = errors.New("empty model response")

	// ErrSessionBusy indicates a turn is already being processed for the session
	ErrSessionBusy = errors.New("session is still processing a previous message")

	// ErrRateLimited indicates the session exceeded its request allowance
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)
