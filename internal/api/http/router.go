package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/Pejo-306/cloud-url-shortener/internal/models"
)

// ShortenerService defines the core request-time engine the API fronts.
type ShortenerService interface {
	// Shorten creates a shortcode for the target URL on behalf of a user and
	// returns the link together with the user's remaining monthly quota.
	Shorten(ctx context.Context, userID, targetURL string) (*models.Link, int64, error)

	// Resolve looks up the target URL for a shortcode and consumes one unit
	// of the link's monthly hit quota.
	Resolve(ctx context.Context, code string) (*models.Link, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes the HTTP router. baseURL is the public prefix used
// to render short URLs in responses.
func NewRouter(logger *httplog.Logger, svc ShortenerService, baseURL string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/ping", handlePing)

	r.Route("/v1", func(r chi.Router) {
		validate := getValidate()

		r.With(requireUser).Post("/shorten", handleShortenURL(svc, validate, baseURL))
	})

	r.Get("/{shortcode}", handleRedirect(svc))

	return r
}
