package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Pejo-306/cloud-url-shortener/internal/database"
	"github.com/Pejo-306/cloud-url-shortener/internal/models"
	"github.com/Pejo-306/cloud-url-shortener/internal/service"
	"github.com/Pejo-306/cloud-url-shortener/pkg/response"
)

const testBaseURL = "https://sho.rt"

type MockShortenerService struct {
	mock.Mock
}

func (s *MockShortenerService) Shorten(ctx context.Context, userID, targetURL string) (*models.Link, int64, error) {
	args := s.Called(ctx, userID, targetURL)
	link, _ := args.Get(0).(*models.Link)
	remaining, _ := args.Get(1).(int64)
	return link, remaining, args.Error(2)
}

func (s *MockShortenerService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	args := s.Called(ctx, code)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

type HandlersTestSuite struct {
	suite.Suite
	logger  *httplog.Logger
	svcMock *MockShortenerService
	server  *httptest.Server
	e       *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.svcMock = new(MockShortenerService)
	router := NewRouter(suite.logger, suite.svcMock, testBaseURL)
	suite.server = httptest.NewServer(router)
	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.svcMock.AssertExpectations(suite.T())
	suite.server.Close()
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/v1/shorten"

	suite.Run("missing user identity", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{
				"target_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusUnauthorized).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.UnauthorizedResponse.Message)
	})

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.EmptyRequestBodyResponse.Message)
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("validation error", func() {
		suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			WithJSON(map[string]string{
				"target_url": "invalid url",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("message").
			ContainsKey("details")
	})

	suite.Run("user quota exceeded", func() {
		suite.svcMock.
			On("Shorten", mock.Anything, "user-1", "https://example.com").
			Times(1).
			Return(nil, int64(0), &service.QuotaExceededError{RetryAfter: 90 * time.Second})

		resp := suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			WithJSON(map[string]string{
				"target_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusTooManyRequests)

		resp.Header("Retry-After").IsEqual("90")
		resp.HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.QuotaExceededResponse.Message)
	})

	suite.Run("server error", func() {
		suite.svcMock.
			On("Shorten", mock.Anything, "user-1", "https://example.com").
			Times(1).
			Return(nil, int64(0), errors.New("unknown error"))

		suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			WithJSON(map[string]string{
				"target_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.svcMock.
			On("Shorten", mock.Anything, "user-1", "https://example.com").
			Times(1).
			Return(&models.Link{
				Shortcode: "b3Kq9Zx",
				TargetURL: "https://example.com",
			}, int64(17), nil)

		suite.e.POST(path).
			WithHeader("X-User-Id", "user-1").
			WithJSON(map[string]string{
				"target_url": "https://example.com",
			}).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("short_url", testBaseURL+"/b3Kq9Zx").
			HasValue("shortcode", "b3Kq9Zx").
			HasValue("target_url", "https://example.com").
			HasValue("remaining_quota", 17)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/b3Kq9Zx"

	suite.Run("shortcode not found", func() {
		suite.svcMock.
			On("Resolve", mock.Anything, "b3Kq9Zx").
			Times(1).
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(path).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("hit quota exceeded", func() {
		suite.svcMock.
			On("Resolve", mock.Anything, "b3Kq9Zx").
			Times(1).
			Return(nil, &service.QuotaExceededError{RetryAfter: 3600 * time.Second})

		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusTooManyRequests)

		resp.Header("Retry-After").IsEqual("3600")
		resp.HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.QuotaExceededResponse.Message)
	})

	suite.Run("server error", func() {
		suite.svcMock.
			On("Resolve", mock.Anything, "b3Kq9Zx").
			Times(1).
			Return(nil, errors.New("unknown error"))

		suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.svcMock.
			On("Resolve", mock.Anything, "b3Kq9Zx").
			Times(1).
			Return(&models.Link{
				Shortcode: "b3Kq9Zx",
				TargetURL: "https://example.com",
				Hits:      9942,
			}, nil)

		suite.e.GET(path).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
