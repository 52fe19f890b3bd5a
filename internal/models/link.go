package models

import "time"

// Link represents a shortcode to target URL mapping. Hits carries the
// leftover monthly hit quota when the link was read together with its
// counter; it is informational and never used for quota decisions.
type Link struct {
	Shortcode string
	TargetURL string
	Hits      int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
