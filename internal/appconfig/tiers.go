package appconfig

import "time"

// Tier assigns a TTL to a cache entry by data class: hot shortcodes, warm
// shortcodes, and configuration documents respectively.
type Tier int

const (
	TierHot Tier = iota
	TierWarm
	TierCool
)

// TTL returns the expiry duration for the tier.
func (t Tier) TTL() time.Duration {
	switch t {
	case TierHot:
		return 60 * time.Minute
	case TierWarm:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
