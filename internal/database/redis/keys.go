package redis

import (
	"fmt"
	"time"
)

// KeySchema generates the datastore key layout:
//
//	links:counter                    -> integer, monotonic
//	links:{shortcode}:url            -> string
//	links:{shortcode}:hits:{YYYY-MM} -> integer, counts down from limit
//	users:{user_id}:quota:{YYYY-MM}  -> integer, counts up to limit
//
// An optional prefix namespaces all keys, e.g. "cloudshortener:prod".
type KeySchema struct {
	prefix string
}

func NewKeySchema(prefix string) KeySchema {
	return KeySchema{prefix: prefix}
}

func (s KeySchema) CounterKey() string {
	return s.prefixed("links:counter")
}

func (s KeySchema) LinkURLKey(shortcode string) string {
	return s.prefixed(fmt.Sprintf("links:%s:url", shortcode))
}

func (s KeySchema) LinkHitsKey(shortcode string, at time.Time) string {
	return s.prefixed(fmt.Sprintf("links:%s:hits:%s", shortcode, monthOf(at)))
}

func (s KeySchema) UserQuotaKey(userID string, at time.Time) string {
	return s.prefixed(fmt.Sprintf("users:%s:quota:%s", userID, monthOf(at)))
}

func (s KeySchema) prefixed(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// monthOf renders the UTC calendar month used to scope quota counters.
func monthOf(at time.Time) string {
	return at.UTC().Format("2006-01")
}
