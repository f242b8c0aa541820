package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/cleanrecipe/recipestore/recipestore/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ImportRecord is one cleaned scrape result as produced by the
// extraction pipeline. Durations arrive as minutes, ISO-8601 strings,
// or human text depending on the scraper version.
type ImportRecord struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Servings    string          `json:"servings,omitempty"`
	PrepTime    FlexibleMinutes `json:"prep_time,omitempty"`
	CookTime    FlexibleMinutes `json:"cook_time,omitempty"`
	TotalTime   FlexibleMinutes `json:"total_time,omitempty"`
	Ingredients []string        `json:"ingredients"`
	Steps       []string        `json:"steps"`
	SourceURL   string          `json:"source_url"`
	Extraction  string          `json:"extraction"`
	LegalNote   string          `json:"legal_note,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// FlexibleMinutes decodes a duration given as a JSON number of minutes
// or as a string ("PT1H30M", "1 hour 30 minutes"). Unparseable strings
// decode to nil, matching the schema's "unknown timing" semantics. A
// negative number is kept as-is so validation rejects the record,
// like the timing check constraints would.
type FlexibleMinutes struct {
	Minutes *int
}

func (fm *FlexibleMinutes) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n != 0 {
			fm.Minutes = &n
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("duration must be a number or string, got %s", s)
	}
	fm.Minutes = utils.ParseMinutes(str)
	return nil
}

// ImportFailure records one rejected input record.
type ImportFailure struct {
	Index  int
	Title  string
	Reason string
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Total    int
	Imported int
	Failed   int
	Failures []ImportFailure
	Duration time.Duration
}

// ImportService loads cleaned scrape files and upserts them for a
// user with bounded parallelism. A bad record is reported and
// skipped; it never aborts the run.
type ImportService struct {
	repo        repositories.RecipeRepository
	parallelism int
}

func NewImportService(repo repositories.RecipeRepository) *ImportService {
	return &ImportService{
		repo:        repo,
		parallelism: config.ImportParallelism,
	}
}

// SetParallelism overrides the worker count (useful for poolers/timeouts)
func (s *ImportService) SetParallelism(n int) {
	if n > 0 {
		s.parallelism = n
	}
}

// ImportFile reads a JSON array of records from path and imports them
// for userID.
func (s *ImportService) ImportFile(ctx context.Context, userID uuid.UUID, path string) (*ImportStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var records []ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	return s.Import(ctx, userID, records)
}

// Import upserts records for userID. Replays of the same file are
// idempotent: each record lands on its (user_id, source_url) row.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, records []ImportRecord) (*ImportStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("import requires a user id")
	}

	start := time.Now()
	stats := &ImportStats{Total: len(records)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			recipe, err := record.ToRecipe(userID)
			if err == nil {
				err = s.repo.Upsert(gctx, recipe)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				stats.Failures = append(stats.Failures, ImportFailure{
					Index:  i,
					Title:  record.Title,
					Reason: err.Error(),
				})
				slog.Warn("Import record skipped",
					slog.String("type", "import"),
					slog.Int("index", i),
					slog.String("title", record.Title),
					slog.Any("error", err),
				)
				return nil
			}
			stats.Imported++
			return nil
		})
	}

	// Workers never return errors; Wait only surfaces ctx cancellation.
	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := gctx.Err(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	slog.Info("Import completed",
		slog.String("type", "import"),
		slog.String("user_id", userID.String()),
		slog.Int("total", stats.Total),
		slog.Int("imported", stats.Imported),
		slog.Int("failed", stats.Failed),
		slog.Duration("took", stats.Duration),
	)
	return stats, nil
}

// ToRecipe converts an input record into a model ready for upsert.
func (r ImportRecord) ToRecipe(userID uuid.UUID) (*models.Recipe, error) {
	ingredients, err := json.Marshal(nonNil(r.Ingredients))
	if err != nil {
		return nil, fmt.Errorf("failed to encode ingredients: %w", err)
	}
	steps, err := json.Marshal(nonNil(r.Steps))
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}

	raw := r.Raw
	if len(raw) == 0 {
		// Keep the record itself as provenance when the scraper sent
		// no raw payload.
		raw, err = json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode raw payload: %w", err)
		}
	}

	recipe := &models.Recipe{
		UserID:       userID,
		Title:        r.Title,
		Description:  r.Description,
		Servings:     r.Servings,
		PrepTimeMin:  r.PrepTime.Minutes,
		CookTimeMin:  r.CookTime.Minutes,
		TotalTimeMin: r.TotalTime.Minutes,
		Ingredients:  ingredients,
		Steps:        steps,
		SourceURL:    r.SourceURL,
		Extraction:   r.Extraction,
		LegalNote:    r.LegalNote,
		RawJSON:      raw,
	}
	recipe.ApplyDefaults()
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return recipe, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
