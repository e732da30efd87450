package session

import "errors"

// Lifecycle errors returned to callers as typed results. Validation errors
// (game.ErrInvalidConfig, game.ErrInvalidState) come from the domain
// package; store I/O failures propagate wrapped since there is no safe
// partial-state policy for them.
var (
	ErrNotFound       = errors.New("session not found")
	ErrAlreadyStarted = errors.New("session already started")
	ErrFull           = errors.New("session is full")
	ErrExpired        = errors.New("session expired")
	ErrWrongStatus    = errors.New("operation not valid for session status")
	ErrPlayerNotFound = errors.New("player not found")
)
