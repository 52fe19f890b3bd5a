package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pejo-306/cloud-url-shortener/internal/appconfig"
	"github.com/Pejo-306/cloud-url-shortener/internal/database"
	"github.com/Pejo-306/cloud-url-shortener/internal/models"
	"github.com/Pejo-306/cloud-url-shortener/internal/quota"
	"github.com/Pejo-306/cloud-url-shortener/internal/shortcode"
)

// ErrDataIntegrity is returned when an invariant the store must uphold is
// broken: a shortcode collision or an exhausted keyspace. It indicates a
// capacity or configuration defect and is never retried or masked.
var ErrDataIntegrity = errors.New("data integrity violation")

// QuotaExceededError is returned when a monthly quota denies the request.
// RetryAfter points at the start of the next UTC calendar month.
type QuotaExceededError struct {
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded, retry after %s", e.RetryAfter)
}

// LinkRepository defines the store operations the service needs for the
// counter and the shortcode mapping.
type LinkRepository interface {
	// NextCounterValue atomically increments and returns the global counter.
	NextCounterValue(ctx context.Context) (uint64, error)

	// Create writes the mapping with put-if-absent semantics and initializes
	// the current-month hit counter at hitQuota.
	Create(ctx context.Context, shortcode, targetURL string, hitQuota int64, ttl time.Duration) (*models.Link, error)

	// Resolve retrieves the mapping for a shortcode.
	Resolve(ctx context.Context, shortcode string) (*models.Link, error)
}

// QuotaEngine consumes one unit of monthly usage for a subject and reports
// whether the request is allowed.
type QuotaEngine interface {
	CheckAndConsume(ctx context.Context, subjectID string, limit int64) (quota.Result, error)
}

// ConfigProvider supplies the current configuration document (codec
// parameters and quota limits), typically through the config cache.
type ConfigProvider interface {
	Latest(ctx context.Context) (*appconfig.Document, error)
}

// ShortenerService implements the write and read request flows. It holds no
// cross-request state: uniqueness and quota correctness live entirely in the
// atomic store, so replicas can be added freely.
type ShortenerService struct {
	repo      LinkRepository
	userQuota QuotaEngine
	hitQuota  QuotaEngine
	configs   ConfigProvider
	linkTTL   time.Duration
}

func NewShortenerService(repo LinkRepository, userQuota, hitQuota QuotaEngine, configs ConfigProvider, linkTTL time.Duration) *ShortenerService {
	return &ShortenerService{
		repo:      repo,
		userQuota: userQuota,
		hitQuota:  hitQuota,
		configs:   configs,
		linkTTL:   linkTTL,
	}
}

// Shorten creates a shortcode for the target URL on behalf of a user. It
// consults the cached configuration for limits and codec parameters, consumes
// one unit of the user's monthly quota, then derives the shortcode from the
// next counter value and writes the mapping. The returned remaining count
// reflects the user's quota after this request.
func (s *ShortenerService) Shorten(ctx context.Context, userID, targetURL string) (*models.Link, int64, error) {
	const op = "service.ShortenerService.Shorten"

	doc, err := s.configs.Latest(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to load configuration: %w", op, err)
	}

	codec, err := shortcode.New(doc.Payload.Salt, doc.Payload.Multiplier, doc.Payload.ShortcodeLength)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: invalid codec configuration: %w", op, err)
	}

	res, err := s.userQuota.CheckAndConsume(ctx, userID, doc.Payload.UserMonthlyQuota)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to check user quota: %w", op, err)
	}
	if !res.Allowed {
		return nil, 0, &QuotaExceededError{RetryAfter: res.RetryAfter}
	}

	counter, err := s.repo.NextCounterValue(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to increment counter: %w", op, err)
	}

	code, err := codec.Encode(counter)
	if err != nil {
		if errors.Is(err, shortcode.ErrKeyspaceExhausted) {
			return nil, 0, fmt.Errorf("%s: %w: %w", op, ErrDataIntegrity, err)
		}
		return nil, 0, fmt.Errorf("%s: failed to encode counter: %w", op, err)
	}

	link, err := s.repo.Create(ctx, code, targetURL, doc.Payload.LinkHitsQuota, s.linkTTL)
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			// Bijectivity plus counter uniqueness make this impossible inside
			// the capacity window. Reject, never overwrite, never retry.
			return nil, 0, fmt.Errorf("%s: %w: %w", op, ErrDataIntegrity, err)
		}
		return nil, 0, fmt.Errorf("%s: failed to create link: %w", op, err)
	}

	return link, res.Remaining, nil
}

// Resolve looks up the target URL for a shortcode and consumes one unit of
// the link's monthly hit quota. The quota decrement already attributed to
// this request is the only counter change a rejected resolution leaves
// behind.
func (s *ShortenerService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	const op = "service.ShortenerService.Resolve"

	link, err := s.repo.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve shortcode: %w", op, err)
	}

	doc, err := s.configs.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load configuration: %w", op, err)
	}

	res, err := s.hitQuota.CheckAndConsume(ctx, code, doc.Payload.LinkHitsQuota)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check link hit quota: %w", op, err)
	}
	if !res.Allowed {
		return nil, &QuotaExceededError{RetryAfter: res.RetryAfter}
	}

	link.Hits = res.Remaining
	return link, nil
}
