package models

import "errors"

// Storage errors shared by every store implementation. Repositories classify
// driver errors into these so callers can match them with errors.Is.
var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrStaleState  = errors.New("record changed concurrently")
	ErrUnavailable = errors.New("storage unavailable")
)
