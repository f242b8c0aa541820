package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func validRecipe() *Recipe {
	return &Recipe{
		UserID:      uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Title:       "Tomato Soup",
		Ingredients: json.RawMessage(`["tomato","salt"]`),
		Steps:       json.RawMessage(`["chop","boil"]`),
		SourceURL:   "https://example.com/soup",
		Extraction:  ExtractionStructured,
		RawJSON:     json.RawMessage(`{"title":"Tomato Soup"}`),
	}
}

func Test_Recipe_Validate(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name    string
		mutate  func(r *Recipe)
		wantErr string
	}{
		{name: "valid", mutate: func(r *Recipe) {}},
		{name: "valid with timings", mutate: func(r *Recipe) {
			r.PrepTimeMin = intPtr(10)
			r.CookTimeMin = intPtr(20)
			r.TotalTimeMin = intPtr(30)
		}},
		{name: "missing user", mutate: func(r *Recipe) { r.UserID = uuid.Nil }, wantErr: "user_id"},
		{name: "whitespace title", mutate: func(r *Recipe) { r.Title = " \t " }, wantErr: "title"},
		{name: "negative prep time", mutate: func(r *Recipe) { r.PrepTimeMin = intPtr(-5) }, wantErr: "prep_time_min"},
		{name: "ingredients object", mutate: func(r *Recipe) { r.Ingredients = json.RawMessage(`{"a":1}`) }, wantErr: "ingredients"},
		{name: "steps scalar", mutate: func(r *Recipe) { r.Steps = json.RawMessage(`"boil"`) }, wantErr: "steps"},
		{name: "ftp source", mutate: func(r *Recipe) { r.SourceURL = "ftp://example.com/soup" }, wantErr: "source_url"},
		{name: "bad extraction", mutate: func(r *Recipe) { r.Extraction = "manual" }, wantErr: "extraction"},
		{name: "missing raw json", mutate: func(r *Recipe) { r.RawJSON = nil }, wantErr: "raw_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Recipe.Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Recipe.Validate() expected error containing %q, got nil", tt.wantErr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Recipe.Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func Test_Recipe_ApplyDefaults(t *testing.T) {
	t.Run("legal note default", func(t *testing.T) {
		r := validRecipe()
		r.ApplyDefaults()
		if r.LegalNote != DefaultLegalNote {
			t.Errorf("ApplyDefaults() legal_note = %q, want default", r.LegalNote)
		}

		// Two records omitting the note receive the identical string.
		r2 := validRecipe()
		r2.ApplyDefaults()
		if r.LegalNote != r2.LegalNote {
			t.Errorf("ApplyDefaults() not idempotent: %q vs %q", r.LegalNote, r2.LegalNote)
		}
	})

	t.Run("caller-supplied legal note kept", func(t *testing.T) {
		r := validRecipe()
		r.LegalNote = "custom note"
		r.ApplyDefaults()
		if r.LegalNote != "custom note" {
			t.Errorf("ApplyDefaults() overwrote legal_note: %q", r.LegalNote)
		}
	})

	t.Run("host derived from url", func(t *testing.T) {
		r := validRecipe()
		r.ApplyDefaults()
		if r.SourceHost != "example.com" {
			t.Errorf("ApplyDefaults() source_host = %q, want example.com", r.SourceHost)
		}
	})

	t.Run("caller-supplied host kept", func(t *testing.T) {
		r := validRecipe()
		r.SourceHost = "cdn.example.org"
		r.ApplyDefaults()
		if r.SourceHost != "cdn.example.org" {
			t.Errorf("ApplyDefaults() overwrote source_host: %q", r.SourceHost)
		}
	})
}
