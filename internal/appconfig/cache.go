package appconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Pejo-306/cloud-url-shortener/internal/database"
)

// Cache is the tiered TTL cache for configuration documents. Reads are
// lazily populated: a hit is served without consulting the source, a miss
// fetches from the source and warms the cache as a side effect.
//
// Degradation follows the shared decision table: if the source is
// unreachable the last cached value is served for as long as it lives; if
// the backing store is unreachable the cache is bypassed and the source is
// consulted directly.
type Cache struct {
	backend Backend
	source  Source
	keys    KeySchema
	logger  *slog.Logger
}

func NewCache(backend Backend, source Source, keys KeySchema, logger *slog.Logger) *Cache {
	return &Cache{
		backend: backend,
		source:  source,
		keys:    keys,
		logger:  logger,
	}
}

// Latest returns the newest configuration document, from cache when
// possible.
func (c *Cache) Latest(ctx context.Context) (*Document, error) {
	const op = "appconfig.Cache.Latest"

	doc, err := c.get(ctx, c.keys.LatestKey(), func(ctx context.Context) (*Document, *Metadata, error) {
		return c.source.FetchLatest(ctx)
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// Version returns a pinned document version, from cache when possible.
func (c *Cache) Version(ctx context.Context, version int) (*Document, error) {
	const op = "appconfig.Cache.Version"

	doc, err := c.get(ctx, c.keys.VersionKey(version), func(ctx context.Context) (*Document, *Metadata, error) {
		return c.source.FetchVersion(ctx, version)
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// Metadata returns the metadata record for a pinned document version.
func (c *Cache) Metadata(ctx context.Context, version int) (*Metadata, error) {
	const op = "appconfig.Cache.Metadata"

	blob, err := c.backend.Get(ctx, c.keys.MetadataKey(version))
	if err == nil {
		var meta Metadata
		if jsonErr := json.Unmarshal(blob, &meta); jsonErr == nil {
			return &meta, nil
		}
		// Corrupt entry: discard and fall through to a fresh fetch.
		c.discard(ctx, c.keys.MetadataKey(version))
	} else if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheUnavailable) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, meta, err := c.source.FetchVersion(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.populate(ctx, meta.Version, nil, meta, false)
	return meta, nil
}

// Warm force-pulls the latest document from the source and pushes it into
// the cache ahead of expiry. It returns the resolved version. Callers on the
// serving path must treat failures as fire-and-forget.
func (c *Cache) Warm(ctx context.Context) (int, error) {
	const op = "appconfig.Cache.Warm"

	doc, meta, err := c.source.FetchLatest(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to fetch latest document: %w", op, err)
	}

	if err := c.populateStrict(ctx, doc.Version, doc, meta, true); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return doc.Version, nil
}

// Invalidate drops cache entries by key.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "appconfig.Cache.Invalidate"

	if err := c.backend.Del(ctx, keys...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Keys exposes the cache key schema so callers can target Invalidate.
func (c *Cache) Keys() KeySchema {
	return c.keys
}

type fetchFunc func(ctx context.Context) (*Document, *Metadata, error)

func (c *Cache) get(ctx context.Context, key string, fetch fetchFunc, latest bool) (*Document, error) {
	blob, err := c.backend.Get(ctx, key)
	if err == nil {
		doc, decodeErr := decodeDocument(blob)
		if decodeErr == nil {
			return doc, nil
		}

		// Corrupt entries are never served: discard and re-fetch.
		c.logger.Warn("discarding corrupt cache entry",
			slog.String("key", key), slog.Any("err", decodeErr))
		c.discard(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheUnavailable) {
		return nil, err
	} else if errors.Is(err, ErrCacheUnavailable) {
		action := database.Decide(database.DepCacheStore, database.ConsumerConfigCache)
		if action != database.FailOpenBypass {
			return nil, err
		}
		c.logger.Warn("cache backing store unavailable, bypassing cache",
			slog.String("key", key), slog.Any("err", err))
	}

	doc, meta, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, doc.Version, doc, meta, latest)
	return doc, nil
}

// populate writes fetched content into the cache, best-effort. A failed
// write never propagates to request handling.
func (c *Cache) populate(ctx context.Context, version int, doc *Document, meta *Metadata, latest bool) {
	if err := c.populateStrict(ctx, version, doc, meta, latest); err != nil {
		c.logger.Warn("failed to populate config cache",
			slog.Int("version", version), slog.Any("err", err))
	}
}

func (c *Cache) populateStrict(ctx context.Context, version int, doc *Document, meta *Metadata, latest bool) error {
	const op = "appconfig.Cache.populate"

	ttl := TierCool.TTL()

	if doc != nil {
		blob, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal document: %w", op, err)
		}

		if err := c.backend.Set(ctx, c.keys.VersionKey(version), blob, ttl); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if latest {
			// The latest pointer duplicates the full document so a hit
			// costs a single round-trip.
			if err := c.backend.Set(ctx, c.keys.LatestKey(), blob, ttl); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if meta != nil {
		blob, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal metadata: %w", op, err)
		}

		if err := c.backend.Set(ctx, c.keys.MetadataKey(version), blob, ttl); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if latest {
			if err := c.backend.Set(ctx, c.keys.LatestMetadataKey(), blob, ttl); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	return nil
}

func (c *Cache) discard(ctx context.Context, key string) {
	if err := c.backend.Del(ctx, key); err != nil {
		c.logger.Warn("failed to discard cache entry",
			slog.String("key", key), slog.Any("err", err))
	}
}
