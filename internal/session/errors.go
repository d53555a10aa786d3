// Package session keeps conversations alive across turns and persists them
// to disk.
package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidID       = errors.New("invalid session id")
	ErrEmptyMessage    = errors.New("message is empty")
)
