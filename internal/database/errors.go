package database

import "errors"

var (
	// ErrShortCodeExists is returned when a put-if-absent write finds an
	// existing mapping for the shortcode. Because the codec is bijective and
	// the counter unique, this indicates a data integrity defect, not a
	// retryable collision.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when an attempt is made to retrieve
	// a URL using a short code that doesn't exist.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreUnavailable is returned when the atomic key-value store is
	// unreachable. Consumers map it through the degradation table; they never
	// improvise their own fallback.
	ErrStoreUnavailable = errors.New("store unavailable")
)
