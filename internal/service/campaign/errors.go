package campaign

import "errors"

// Sentinel errors returned by repositories.
var (
	ErrNotFound       = errors.New("campaign not found")
	ErrStatusConflict = errors.New("campaign status changed concurrently")
)
