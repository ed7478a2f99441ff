package menu

import "errors"

// Sentinel errors for the menu pipeline. Fetch failures wrap the underlying
// transport error, so callers can use errors.Is for both.
var (
	// ErrLocationNotFound means no location matches the slug. It is terminal
	// for the navigation and not retried.
	ErrLocationNotFound = errors.New("location not found")

	// ErrLocationFetch means the location collection could not be loaded.
	ErrLocationFetch = errors.New("location fetch failed")

	// ErrAssignmentFetch means the location's product assignments could not
	// be loaded. The product query stays gated until a retry succeeds.
	ErrAssignmentFetch = errors.New("assignment fetch failed")

	// ErrGated is returned by the executor when no allow-list is available.
	ErrGated = errors.New("product query gated: no assignment set")

	// ErrProductFetch means the product search failed.
	ErrProductFetch = errors.New("product fetch failed")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrTooManySessions is returned by SessionStore.Open when the store is full.
	ErrTooManySessions = errors.New("too many open sessions")
)
