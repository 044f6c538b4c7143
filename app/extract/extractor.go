package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lysyi3m/listing-comb/app/listing"
	"github.com/lysyi3m/listing-comb/app/metrics"
	"github.com/lysyi3m/listing-comb/app/oracle"
)

var (
	ErrOracle            = errors.New("oracle call failed")
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// Result carries the extracted fields and, when extraction degraded to an
// empty field set, the reason. Fields is never nil.
type Result struct {
	Fields listing.Extracted
	Err    error
}

type Extractor struct {
	oracle oracle.Completer
}

func NewExtractor(completer oracle.Completer) *Extractor {
	return &Extractor{oracle: completer}
}

// Run returns the fields extracted from rawText, or an empty set on any
// failure.
func (e *Extractor) Run(ctx context.Context, rawText string) listing.Extracted {
	return e.Extract(ctx, rawText).Fields
}

// Extract calls the oracle exactly once. Failures are reported in
// Result.Err and never returned as an error.
func (e *Extractor) Extract(ctx context.Context, rawText string) Result {
	normalized, err := Normalize(rawText)
	if err != nil {
		return failed(err)
	}

	response, err := e.oracle.Complete(ctx, BuildPrompt(normalized))
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrOracle, err))
	}

	fields, err := ParseResponse(response)
	if err != nil {
		return failed(err)
	}

	slog.Debug("Listing fields extracted", "fields", fields.Count(), "keys", len(fields))
	metrics.ExtractedFields.Observe(float64(fields.Count()))
	return Result{Fields: fields}
}

func failed(err error) Result {
	slog.Warn("Listing extraction failed", "error", err)
	metrics.ExtractionFailuresTotal.WithLabelValues(failureKind(err)).Inc()
	return Result{Fields: listing.Extracted{}, Err: err}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrNormalize):
		return "normalize"
	case errors.Is(err, ErrOracle):
		return "oracle"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "unknown"
	}
}

// ParseResponse decodes a response that must be exactly one JSON object.
// String, number and boolean values are kept as text; null becomes empty.
func ParseResponse(response string) (listing.Extracted, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(response)))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedResponse)
	}

	fields := make(listing.Extracted, len(raw))
	for key, value := range raw {
		text, err := valueText(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, key, err)
		}
		fields[key] = text
	}

	return fields, nil
}

func valueText(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	}
}
