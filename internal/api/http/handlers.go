package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/Pejo-306/cloud-url-shortener/internal/database"
	"github.com/Pejo-306/cloud-url-shortener/internal/service"
	"github.com/Pejo-306/cloud-url-shortener/pkg/response"
)

type ctxKey int

const userIDKey ctxKey = iota

// requireUser extracts the caller identity installed by the edge auth layer.
// Requests without it are rejected before reaching the handlers.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.UnauthorizedResponse)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.PlainText(w, r, "pong")
}

type shortenURLRequest struct {
	TargetURL string `json:"target_url" validate:"required,url"`
}

type shortenURLResponse struct {
	ShortURL       string `json:"short_url"`
	Shortcode      string `json:"shortcode"`
	TargetURL      string `json:"target_url"`
	RemainingQuota int64  `json:"remaining_quota"`
}

// retryAfterSeconds renders a quota cooldown as a whole number of seconds,
// rounded up so clients never retry early.
func retryAfterSeconds(err *service.QuotaExceededError) string {
	secs := int64(math.Ceil(err.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func handleShortenURL(svc ShortenerService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenURLRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationErrorResponse(validationErrs))
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		link, remaining, err := svc.Shorten(r.Context(), userFromContext(r.Context()), req.TargetURL)
		if err != nil {
			var quotaErr *service.QuotaExceededError
			if errors.As(err, &quotaErr) {
				w.Header().Set("Retry-After", retryAfterSeconds(quotaErr))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.QuotaExceededResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, shortenURLResponse{
			ShortURL:       fmt.Sprintf("%s/%s", baseURL, link.Shortcode),
			Shortcode:      link.Shortcode,
			TargetURL:      link.TargetURL,
			RemainingQuota: remaining,
		})
	}
}

func handleRedirect(svc ShortenerService) http.HandlerFunc {
	const op = "http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "shortcode")

		link, err := svc.Resolve(r.Context(), code)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			default:
				var quotaErr *service.QuotaExceededError
				if errors.As(err, &quotaErr) {
					w.Header().Set("Retry-After", retryAfterSeconds(quotaErr))
					render.Status(r, http.StatusTooManyRequests)
					render.JSON(w, r, response.QuotaExceededResponse)
					return
				}

				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		http.Redirect(w, r, link.TargetURL, http.StatusFound)
	}
}
