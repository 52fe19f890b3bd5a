package appconfig

import "fmt"

// KeySchema generates the cache key layout:
//
//	cache:{prefix}:appconfig:latest
//	cache:{prefix}:appconfig:latest:metadata
//	cache:{prefix}:appconfig:v{n}
//	cache:{prefix}:appconfig:v{n}:metadata
//
// The schema deliberately mirrors the datastore's KeySchema without sharing
// code: the caching layer must not be entangled with the datastore backend.
type KeySchema struct {
	prefix string
}

func NewKeySchema(prefix string) KeySchema {
	if prefix != "" {
		prefix = "cache:" + prefix
	} else {
		prefix = "cache"
	}
	return KeySchema{prefix: prefix}
}

func (s KeySchema) LatestKey() string {
	return s.prefix + ":appconfig:latest"
}

func (s KeySchema) LatestMetadataKey() string {
	return s.prefix + ":appconfig:latest:metadata"
}

func (s KeySchema) VersionKey(version int) string {
	return fmt.Sprintf("%s:appconfig:v%d", s.prefix, version)
}

func (s KeySchema) MetadataKey(version int) string {
	return fmt.Sprintf("%s:appconfig:v%d:metadata", s.prefix, version)
}
