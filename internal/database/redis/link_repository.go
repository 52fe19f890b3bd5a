package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pejo-306/cloud-url-shortener/internal/database"
	"github.com/Pejo-306/cloud-url-shortener/internal/models"
)

// LinkRepository owns the shortcode to URL mapping and the global counter.
type LinkRepository struct {
	client *redis.Client
	keys   KeySchema
	now    func() time.Time
}

func NewLinkRepository(client *redis.Client, keys KeySchema) *LinkRepository {
	return &LinkRepository{
		client: client,
		keys:   keys,
		now:    time.Now,
	}
}

// NextCounterValue atomically increments and returns the global counter. The
// counter is externally durable and never reset; it is the sole source of
// shortcode uniqueness.
func (r *LinkRepository) NextCounterValue(ctx context.Context) (uint64, error) {
	const op = "redis.LinkRepository.NextCounterValue"

	value, err := r.client.Incr(ctx, r.keys.CounterKey()).Result()
	if err != nil {
		return 0, storeErr(op, err)
	}

	return uint64(value), nil
}

// Create writes the shortcode mapping with put-if-absent semantics and
// initializes the link's current-month hit counter at the configured quota.
// Both writes share the retention TTL and execute in one MULTI/EXEC block, so
// a reader can never observe a link without its hit counter.
//
// An existing mapping is a hard invariant violation (the codec is bijective
// and the counter unique): the write is rejected with ErrShortCodeExists and
// never overwrites or retries.
func (r *LinkRepository) Create(ctx context.Context, shortcode, targetURL string, hitQuota int64, ttl time.Duration) (*models.Link, error) {
	const op = "redis.LinkRepository.Create"

	urlKey := r.keys.LinkURLKey(shortcode)
	hitsKey := r.keys.LinkHitsKey(shortcode, r.now())

	pipe := r.client.TxPipeline()
	created := pipe.SetNX(ctx, urlKey, targetURL, ttl)
	pipe.SetNX(ctx, hitsKey, hitQuota, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr(op, err)
	}

	if !created.Val() {
		return nil, fmt.Errorf("%s: shortcode %q: %w", op, shortcode, database.ErrShortCodeExists)
	}

	now := r.now().UTC()
	return &models.Link{
		Shortcode: shortcode,
		TargetURL: targetURL,
		Hits:      hitQuota,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Resolve reads the mapping for a shortcode. The monthly hit counter is not
// read here; quota accounting always goes through the quota engine against
// the authoritative current value.
func (r *LinkRepository) Resolve(ctx context.Context, shortcode string) (*models.Link, error) {
	const op = "redis.LinkRepository.Resolve"

	urlKey := r.keys.LinkURLKey(shortcode)

	pipe := r.client.TxPipeline()
	target := pipe.Get(ctx, urlKey)
	ttl := pipe.TTL(ctx, urlKey)

	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: shortcode %q: %w", op, shortcode, database.ErrURLNotFound)
		}
		return nil, storeErr(op, err)
	}

	return &models.Link{
		Shortcode: shortcode,
		TargetURL: target.Val(),
		ExpiresAt: r.now().UTC().Add(ttl.Val()),
	}, nil
}
