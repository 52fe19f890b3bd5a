// Package appconfig caches configuration documents pulled from the
// authoritative configuration source. The cache is strictly an optimization:
// every path still works, with added latency, when it is unavailable.
package appconfig

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Payload carries the request-time configuration the codec and the quota
// engines consult: codec parameters and monthly limits.
type Payload struct {
	Salt             string `json:"salt" validate:"required"`
	Multiplier       uint64 `json:"multiplier" validate:"required"`
	ShortcodeLength  int    `json:"shortcode_length" validate:"required,min=1,max=10"`
	UserMonthlyQuota int64  `json:"user_monthly_quota" validate:"required,min=1"`
	LinkHitsQuota    int64  `json:"link_hits_quota" validate:"required,min=1"`
}

// Document is a versioned configuration payload as held in the cache.
type Document struct {
	Version   int       `json:"version" validate:"required,min=1"`
	FetchedAt time.Time `json:"fetched_at" validate:"required"`
	Payload   Payload   `json:"payload" validate:"required"`
}

// Metadata describes a cached document for validation and diagnostics.
type Metadata struct {
	Version     int       `json:"version"`
	ETag        string    `json:"etag,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

var validate = validator.New()

// decodeDocument parses and structurally validates a cached document blob.
// A failure means the entry is corrupt and must be discarded, never served.
func decodeDocument(blob []byte) (*Document, error) {
	const op = "appconfig.decodeDocument"

	var doc Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal document: %w", op, err)
	}

	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%s: document failed validation: %w", op, err)
	}

	return &doc, nil
}
