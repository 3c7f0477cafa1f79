package models

import "errors"

// Error kinds shared by the services. Callers wrap them with detail and
// match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateOwnership = errors.New("game already in library")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("invalid credentials")
)
