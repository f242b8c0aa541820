package utils

import (
	"encoding/json"
	"testing"
)

func Test_ValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "plain title", title: "Tomato Soup", wantErr: false},
		{name: "leading and trailing spaces", title: "  Tomato Soup  ", wantErr: false},
		{name: "empty", title: "", wantErr: true},
		{name: "spaces only", title: "   ", wantErr: true},
		{name: "tabs and newlines only", title: "\t\n ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateTitle(tt.title); (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func Test_ValidateSourceURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://example.com/soup", wantErr: false},
		{name: "http", url: "http://example.com/soup", wantErr: false},
		{name: "uppercase scheme", url: "HTTPS://example.com/soup", wantErr: false},
		{name: "mixed case scheme", url: "HtTp://example.com", wantErr: false},
		{name: "ftp", url: "ftp://example.com/soup", wantErr: true},
		{name: "no scheme", url: "example.com/soup", wantErr: true},
		{name: "empty", url: "", wantErr: true},
		{name: "scheme only", url: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSourceURL(tt.url); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func Test_ValidateJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "string array", raw: `["tomato","salt"]`, wantErr: false},
		{name: "empty array", raw: `[]`, wantErr: false},
		{name: "array of objects", raw: `[{"item":"tomato","qty":2}]`, wantErr: false},
		{name: "object", raw: `{"item":"tomato"}`, wantErr: true},
		{name: "string scalar", raw: `"tomato"`, wantErr: true},
		{name: "number scalar", raw: `42`, wantErr: true},
		{name: "json null", raw: `null`, wantErr: true},
		{name: "empty input", raw: ``, wantErr: true},
		{name: "truncated array", raw: `["tomato"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONArray("ingredients", json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJSONArray(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func Test_ValidateExtraction(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		wantErr bool
	}{
		{name: "structured", method: "structured", wantErr: false},
		{name: "readability", method: "readability", wantErr: false},
		{name: "unknown", method: "llm", wantErr: true},
		{name: "empty", method: "", wantErr: true},
		{name: "wrong case", method: "Structured", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateExtraction(tt.method); (err != nil) != tt.wantErr {
				t.Errorf("ValidateExtraction(%q) error = %v, wantErr %v", tt.method, err, tt.wantErr)
			}
		})
	}
}

func Test_ValidateTiming(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name    string
		minutes *int
		wantErr bool
	}{
		{name: "absent", minutes: nil, wantErr: false},
		{name: "zero", minutes: intPtr(0), wantErr: false},
		{name: "positive", minutes: intPtr(45), wantErr: false},
		{name: "negative", minutes: intPtr(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateTiming("prep_time_min", tt.minutes); (err != nil) != tt.wantErr {
				t.Errorf("ValidateTiming() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_HostFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "plain host", url: "https://example.com/soup", want: "example.com"},
		{name: "host with port", url: "https://example.com:8080/soup", want: "example.com"},
		{name: "uppercase host", url: "https://Example.COM/soup", want: "example.com"},
		{name: "subdomain", url: "https://www.seriouseats.com/recipes/1", want: "www.seriouseats.com"},
		{name: "garbage", url: "://not-a-url", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HostFromURL(tt.url); got != tt.want {
				t.Errorf("HostFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
