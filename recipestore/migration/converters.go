// converters.go
package migration

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// convertRecipe maps a legacy document to the relational model. It
// returns an error for documents the schema would reject outright
// (blank title, bad URL, unknown extraction); those are counted as
// skips by the migrator rather than aborting the run.
func convertRecipe(mr MongoRecipe, fallbackUser uuid.UUID) (*models.Recipe, error) {
	userID := fallbackUser
	if mr.UserID != "" {
		parsed, err := uuid.Parse(mr.UserID)
		if err != nil {
			return nil, fmt.Errorf("bad user_id %q: %w", mr.UserID, err)
		}
		userID = parsed
	}

	ingredients, err := marshalStringArray(mr.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("bad ingredients: %w", err)
	}
	steps, err := marshalStringArray(mr.Steps)
	if err != nil {
		return nil, fmt.Errorf("bad steps: %w", err)
	}

	raw := mr.Raw
	if raw == nil {
		raw = bson.M{"legacy_id": mr.ID.Hex()}
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("bad raw payload: %w", err)
	}

	extraction := strings.ToLower(strings.TrimSpace(mr.Extraction))
	if extraction == "" {
		// Pre-extraction-tracking documents were all structured-data
		// scrapes.
		extraction = models.ExtractionStructured
	}

	recipe := &models.Recipe{
		UserID:       userID,
		Title:        cleanseString(mr.Title),
		Description:  cleanseString(mr.Description),
		Servings:     cleanseString(mr.Servings),
		PrepTimeMin:  convertTiming(mr.PrepTime),
		CookTimeMin:  convertTiming(mr.CookTime),
		TotalTimeMin: convertTiming(mr.TotalTime),
		Ingredients:  ingredients,
		Steps:        steps,
		SourceURL:    strings.TrimSpace(mr.SourceURL),
		Extraction:   extraction,
		LegalNote:    cleanseString(mr.LegalNote),
		RawJSON:      rawJSON,
	}
	recipe.ApplyDefaults()
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return recipe, nil
}

// convertTiming handles the timing field's historical shapes: int32,
// int64, float64, or a duration string. Anything else is a nil timing.
func convertTiming(v interface{}) *int {
	switch t := v.(type) {
	case nil:
		return nil
	case int32:
		return positiveMinutes(int(t))
	case int64:
		return positiveMinutes(int(t))
	case float64:
		return positiveMinutes(int(t))
	case string:
		return utils.ParseMinutes(t)
	case primitive.Decimal128:
		m := utils.ParseMinutes(t.String())
		return m
	default:
		return nil
	}
}

func positiveMinutes(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func marshalStringArray(items []string) (json.RawMessage, error) {
	if items == nil {
		items = []string{}
	}
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if s := cleanseString(item); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return json.Marshal(cleaned)
}

func cleanseString(s string) string {
	if s == "" {
		return ""
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	// Drop null runes and control characters (keep tab, newline,
	// carriage return); old scrapes carried these through from raw
	// page bytes.
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r == 0 || (r < 32 && r != 9 && r != 10 && r != 13) {
			continue
		}
		result.WriteRune(r)
	}

	return strings.TrimSpace(result.String())
}
