package utils

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Client-side mirrors of the recipes table check constraints. The
// database remains authoritative; these exist so bad records can be
// rejected with a precise reason before a transaction is attempted.

const (
	ExtractionStructured  = "structured"
	ExtractionReadability = "readability"
)

// ValidateTitle rejects empty or all-whitespace titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must not be empty or whitespace")
	}
	return nil
}

// ValidateSourceURL requires an absolute http or https URL. The scheme
// check is case-insensitive, matching the ~* '^https?://' constraint.
func ValidateSourceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("source_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("source_url is not a valid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("source_url must use an http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("source_url has no host")
	}
	return nil
}

// ValidateJSONArray enforces jsonb_typeof(value) = 'array': objects,
// scalars, and JSON null are all rejected.
func ValidateJSONArray(field string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("%s is required", field)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return fmt.Errorf("%s must be a JSON array", field)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("%s must be a JSON array: %w", field, err)
	}
	return nil
}

// ValidateExtraction checks membership in the extraction_method enum.
func ValidateExtraction(method string) error {
	switch method {
	case ExtractionStructured, ExtractionReadability:
		return nil
	}
	return fmt.Errorf("extraction must be %q or %q, got %q", ExtractionStructured, ExtractionReadability, method)
}

// ValidateTiming checks an optional minutes field: absent is fine,
// present must be non-negative.
func ValidateTiming(field string, minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", field, *minutes)
	}
	return nil
}

// HostFromURL derives a source_host value from a source URL. Returns
// an empty string when the URL does not parse; callers keep whatever
// host the record already carries.
func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
