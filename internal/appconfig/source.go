package appconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Pejo-306/cloud-url-shortener/internal/config"
)

// ErrSourceUnavailable is returned when the authoritative configuration
// source cannot be reached or answers with an error.
var ErrSourceUnavailable = errors.New("config source unavailable")

// Source is the authoritative origin of configuration documents.
type Source interface {
	// FetchLatest retrieves the newest deployed document.
	FetchLatest(ctx context.Context) (*Document, *Metadata, error)
	// FetchVersion retrieves a specific pinned document version.
	FetchVersion(ctx context.Context, version int) (*Document, *Metadata, error)
}

// HTTPSource pulls documents from the configuration service over HTTP. The
// service reports the resolved document version in a Configuration-Version
// response header.
type HTTPSource struct {
	cfg    config.AppConfig
	client *http.Client
	now    func() time.Time
}

func NewHTTPSource(cfg config.AppConfig) *HTTPSource {
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		now:    time.Now,
	}
}

func (s *HTTPSource) FetchLatest(ctx context.Context) (*Document, *Metadata, error) {
	const op = "appconfig.HTTPSource.FetchLatest"
	return s.fetch(ctx, op, s.profileURL())
}

func (s *HTTPSource) FetchVersion(ctx context.Context, version int) (*Document, *Metadata, error) {
	const op = "appconfig.HTTPSource.FetchVersion"
	return s.fetch(ctx, op, fmt.Sprintf("%s?version=%d", s.profileURL(), version))
}

func (s *HTTPSource) profileURL() string {
	return fmt.Sprintf("%s/applications/%s/environments/%s/configurations/%s",
		s.cfg.Endpoint, s.cfg.Application, s.cfg.Environment, s.cfg.Profile)
}

func (s *HTTPSource) fetch(ctx context.Context, op, url string) (*Document, *Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%s: %w: unexpected status %d", op, ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: failed to read response: %w", op, ErrSourceUnavailable, err)
	}

	versionHeader := resp.Header.Get("Configuration-Version")
	version, err := strconv.Atoi(versionHeader)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: invalid Configuration-Version header %q: %w", op, versionHeader, err)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("%s: failed to unmarshal payload: %w", op, err)
	}

	fetchedAt := s.now().UTC()
	doc := &Document{
		Version:   version,
		FetchedAt: fetchedAt,
		Payload:   payload,
	}

	if err := validate.Struct(doc); err != nil {
		return nil, nil, fmt.Errorf("%s: fetched document failed validation: %w", op, err)
	}

	meta := &Metadata{
		Version:     version,
		ETag:        resp.Header.Get("ETag"),
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   fetchedAt,
	}

	return doc, meta, nil
}

// StaticSource serves a fixed payload as version 1. It stands in for the
// configuration service in local development, where the fallback parameters
// from the YAML config are authoritative.
type StaticSource struct {
	payload Payload
	now     func() time.Time
}

func NewStaticSource(payload Payload) *StaticSource {
	return &StaticSource{
		payload: payload,
		now:     time.Now,
	}
}

func (s *StaticSource) FetchLatest(ctx context.Context) (*Document, *Metadata, error) {
	return s.FetchVersion(ctx, 1)
}

func (s *StaticSource) FetchVersion(_ context.Context, version int) (*Document, *Metadata, error) {
	const op = "appconfig.StaticSource.FetchVersion"

	if version != 1 {
		return nil, nil, fmt.Errorf("%s: %w: static source only serves version 1", op, ErrSourceUnavailable)
	}

	fetchedAt := s.now().UTC()
	doc := &Document{
		Version:   1,
		FetchedAt: fetchedAt,
		Payload:   s.payload,
	}

	if err := validate.Struct(doc); err != nil {
		return nil, nil, fmt.Errorf("%s: static payload failed validation: %w", op, err)
	}

	return doc, &Metadata{Version: 1, FetchedAt: fetchedAt}, nil
}
