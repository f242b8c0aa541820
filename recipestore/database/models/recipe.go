package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleanrecipe/recipestore/recipestore/utils"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Extraction methods describe how a recipe record was produced from
// its source page. These mirror the extraction_method enum values.
const (
	ExtractionStructured  = utils.ExtractionStructured
	ExtractionReadability = utils.ExtractionReadability
)

// DefaultLegalNote is applied when a record is stored without one.
const DefaultLegalNote = "For personal use/research only. Do not republish; see the original source link."

type Recipe struct {
	bun.BaseModel `bun:"table:recipes,alias:r"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID       uuid.UUID       `bun:"user_id,notnull,type:uuid"`
	Title        string          `bun:"title,notnull"`
	Description  string          `bun:"description,nullzero"`
	Servings     string          `bun:"servings,nullzero"`
	PrepTimeMin  *int            `bun:"prep_time_min"`
	CookTimeMin  *int            `bun:"cook_time_min"`
	TotalTimeMin *int            `bun:"total_time_min"`
	Ingredients  json.RawMessage `bun:"ingredients,notnull,type:jsonb"`
	Steps        json.RawMessage `bun:"steps,notnull,type:jsonb"`
	SourceURL    string          `bun:"source_url,notnull"`
	SourceHost   string          `bun:"source_host,nullzero"`
	Extraction   string          `bun:"extraction,notnull"`
	LegalNote    string          `bun:"legal_note,notnull"`
	RawJSON      json.RawMessage `bun:"raw_json,notnull,type:jsonb"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// ApplyDefaults fills the fields the schema would default server-side,
// so records built in Go round-trip the same way either path is taken.
// The id and timestamps are left to the database.
func (r *Recipe) ApplyDefaults() {
	if r.LegalNote == "" {
		r.LegalNote = DefaultLegalNote
	}
	if r.SourceHost == "" {
		r.SourceHost = utils.HostFromURL(r.SourceURL)
	}
}

// Validate mirrors the recipes table constraints. A Recipe that passes
// can still be rejected by the database (uniqueness races), but one
// that fails is guaranteed to be refused there too.
func (r *Recipe) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if err := utils.ValidateTitle(r.Title); err != nil {
		return err
	}
	if err := utils.ValidateSourceURL(r.SourceURL); err != nil {
		return err
	}
	if err := utils.ValidateExtraction(r.Extraction); err != nil {
		return err
	}
	if err := utils.ValidateJSONArray("ingredients", r.Ingredients); err != nil {
		return err
	}
	if err := utils.ValidateJSONArray("steps", r.Steps); err != nil {
		return err
	}
	if err := utils.ValidateTiming("prep_time_min", r.PrepTimeMin); err != nil {
		return err
	}
	if err := utils.ValidateTiming("cook_time_min", r.CookTimeMin); err != nil {
		return err
	}
	if err := utils.ValidateTiming("total_time_min", r.TotalTimeMin); err != nil {
		return err
	}
	if len(r.RawJSON) == 0 {
		return fmt.Errorf("raw_json is required")
	}
	return nil
}
