// Package apperr defines the sentinel errors shared across Pensieri packages.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTextService     = errors.New("text service failure")
	ErrStale           = errors.New("stale response")
)
