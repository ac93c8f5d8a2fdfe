// Package upstream holds the error taxonomy and HTTP plumbing shared by every
// component that talks to a third-party service.
package upstream

import "errors"

var (
	// ErrUnavailable covers network errors, timeouts and non-success statuses
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformed covers unparseable or structurally unexpected payloads
	ErrMalformed = errors.New("upstream payload malformed")

	// ErrNotFound means the upstream answered but carried no qualifying data
	ErrNotFound = errors.New("not found")
)
