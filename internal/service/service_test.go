package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Pejo-306/cloud-url-shortener/internal/appconfig"
	"github.com/Pejo-306/cloud-url-shortener/internal/database"
	"github.com/Pejo-306/cloud-url-shortener/internal/models"
	"github.com/Pejo-306/cloud-url-shortener/internal/quota"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) NextCounterValue(ctx context.Context) (uint64, error) {
	args := r.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (r *MockLinkRepository) Create(ctx context.Context, shortcode, targetURL string, hitQuota int64, ttl time.Duration) (*models.Link, error) {
	args := r.Called(ctx, shortcode, targetURL, hitQuota, ttl)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) Resolve(ctx context.Context, shortcode string) (*models.Link, error) {
	args := r.Called(ctx, shortcode)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

type MockQuotaEngine struct {
	mock.Mock
}

func (e *MockQuotaEngine) CheckAndConsume(ctx context.Context, subjectID string, limit int64) (quota.Result, error) {
	args := e.Called(ctx, subjectID, limit)
	return args.Get(0).(quota.Result), args.Error(1)
}

type MockConfigProvider struct {
	mock.Mock
}

func (p *MockConfigProvider) Latest(ctx context.Context) (*appconfig.Document, error) {
	args := p.Called(ctx)
	doc, _ := args.Get(0).(*appconfig.Document)
	return doc, args.Error(1)
}

func testDocument() *appconfig.Document {
	return &appconfig.Document{
		Version:   1,
		FetchedAt: time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC),
		Payload: appconfig.Payload{
			Salt:             "my_secret",
			Multiplier:       1315423911,
			ShortcodeLength:  7,
			UserMonthlyQuota: 20,
			LinkHitsQuota:    10000,
		},
	}
}

type ShortenerServiceTestSuite struct {
	suite.Suite
	errUnknown    error
	repoMock      *MockLinkRepository
	userQuotaMock *MockQuotaEngine
	hitQuotaMock  *MockQuotaEngine
	configsMock   *MockConfigProvider
	svc           *ShortenerService
}

func (suite *ShortenerServiceTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *ShortenerServiceTestSuite) SetupSubTest() {
	suite.repoMock = new(MockLinkRepository)
	suite.userQuotaMock = new(MockQuotaEngine)
	suite.hitQuotaMock = new(MockQuotaEngine)
	suite.configsMock = new(MockConfigProvider)
	suite.svc = NewShortenerService(
		suite.repoMock,
		suite.userQuotaMock,
		suite.hitQuotaMock,
		suite.configsMock,
		365*24*time.Hour,
	)
}

func (suite *ShortenerServiceTestSuite) TearDownSubTest() {
	suite.repoMock.AssertExpectations(suite.T())
	suite.userQuotaMock.AssertExpectations(suite.T())
	suite.hitQuotaMock.AssertExpectations(suite.T())
	suite.configsMock.AssertExpectations(suite.T())
}

func (suite *ShortenerServiceTestSuite) TestShorten() {
	suite.Run("configuration unavailable fails closed", func() {
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(nil, appconfig.ErrSourceUnavailable)

		link, _, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, appconfig.ErrSourceUnavailable)
		suite.Nil(link)
	})

	suite.Run("invalid codec configuration", func() {
		doc := testDocument()
		doc.Payload.Multiplier = 62

		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(doc, nil)

		link, _, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.Error(err)
		suite.Nil(link)
	})

	suite.Run("user quota exceeded", func() {
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.userQuotaMock.
			On("CheckAndConsume", mock.Anything, "user123", int64(20)).
			Once().
			Return(quota.Result{RetryAfter: time.Hour}, nil)

		link, _, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.Error(err)
		var quotaErr *QuotaExceededError
		suite.ErrorAs(err, &quotaErr)
		suite.Equal(time.Hour, quotaErr.RetryAfter)
		suite.Nil(link)
	})

	suite.Run("store unavailable fails closed", func() {
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.userQuotaMock.
			On("CheckAndConsume", mock.Anything, "user123", int64(20)).
			Once().
			Return(quota.Result{}, database.ErrStoreUnavailable)

		link, _, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrStoreUnavailable)
		suite.Nil(link)
	})

	suite.Run("shortcode collision is a fatal integrity error", func() {
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.userQuotaMock.
			On("CheckAndConsume", mock.Anything, "user123", int64(20)).
			Once().
			Return(quota.Result{Allowed: true, Remaining: 19}, nil)
		suite.repoMock.
			On("NextCounterValue", mock.Anything).
			Once().
			Return(uint64(12345), nil)
		suite.repoMock.
			On("Create", mock.Anything, mock.Anything, "https://example.com", int64(10000), mock.Anything).
			Once().
			Return(nil, database.ErrShortCodeExists)

		link, _, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, ErrDataIntegrity)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.userQuotaMock.
			On("CheckAndConsume", mock.Anything, "user123", int64(20)).
			Once().
			Return(quota.Result{Allowed: true, Remaining: 19}, nil)
		suite.repoMock.
			On("NextCounterValue", mock.Anything).
			Once().
			Return(uint64(12345), nil)
		suite.repoMock.
			On("Create", mock.Anything, mock.Anything, "https://example.com", int64(10000), 365*24*time.Hour).
			Once().
			Return(&models.Link{
				Shortcode: "Gh71WPT",
				TargetURL: "https://example.com",
				Hits:      10000,
			}, nil)

		link, remaining, err := suite.svc.Shorten(context.Background(), "user123", "https://example.com")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("https://example.com", link.TargetURL)
		suite.Equal(int64(19), remaining)
	})
}

func (suite *ShortenerServiceTestSuite) TestResolve() {
	suite.Run("unknown shortcode", func() {
		suite.repoMock.
			On("Resolve", mock.Anything, "abc1234").
			Once().
			Return(nil, database.ErrURLNotFound)

		link, err := suite.svc.Resolve(context.Background(), "abc1234")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(link)
	})

	suite.Run("hit quota exhausted", func() {
		suite.repoMock.
			On("Resolve", mock.Anything, "abc1234").
			Once().
			Return(&models.Link{Shortcode: "abc1234", TargetURL: "https://example.com"}, nil)
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.hitQuotaMock.
			On("CheckAndConsume", mock.Anything, "abc1234", int64(10000)).
			Once().
			Return(quota.Result{RetryAfter: 42 * time.Hour}, nil)

		link, err := suite.svc.Resolve(context.Background(), "abc1234")

		suite.Error(err)
		var quotaErr *QuotaExceededError
		suite.ErrorAs(err, &quotaErr)
		suite.Equal(42*time.Hour, quotaErr.RetryAfter)
		suite.Nil(link)
	})

	suite.Run("store unavailable fails closed", func() {
		suite.repoMock.
			On("Resolve", mock.Anything, "abc1234").
			Once().
			Return(nil, database.ErrStoreUnavailable)

		link, err := suite.svc.Resolve(context.Background(), "abc1234")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrStoreUnavailable)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("Resolve", mock.Anything, "abc1234").
			Once().
			Return(&models.Link{Shortcode: "abc1234", TargetURL: "https://example.com"}, nil)
		suite.configsMock.
			On("Latest", mock.Anything).
			Once().
			Return(testDocument(), nil)
		suite.hitQuotaMock.
			On("CheckAndConsume", mock.Anything, "abc1234", int64(10000)).
			Once().
			Return(quota.Result{Allowed: true, Remaining: 9999}, nil)

		link, err := suite.svc.Resolve(context.Background(), "abc1234")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("https://example.com", link.TargetURL)
		suite.Equal(int64(9999), link.Hits)
	})
}

func TestShortenerService(t *testing.T) {
	suite.Run(t, new(ShortenerServiceTestSuite))
}
