package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories/mock"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func validImportRecord(title, sourceURL string) ImportRecord {
	return ImportRecord{
		Title:       title,
		Ingredients: []string{"1 cup flour"},
		Steps:       []string{"Mix."},
		SourceURL:   sourceURL,
		Extraction:  models.ExtractionStructured,
	}
}

func Test_FlexibleMinutes_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *int
		wantErr bool
	}{
		{name: "number", input: `30`, want: intPtr(30)},
		{name: "zero number", input: `0`, want: nil},
		{name: "negative number kept for validation", input: `-5`, want: intPtr(-5)},
		{name: "iso duration", input: `"PT1H30M"`, want: intPtr(90)},
		{name: "human duration", input: `"1 hour 30 minutes"`, want: intPtr(90)},
		{name: "garbage string", input: `"soon"`, want: nil},
		{name: "null", input: `null`, want: nil},
		{name: "object rejected", input: `{"min": 5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fm FlexibleMinutes
			err := json.Unmarshal([]byte(tt.input), &fm)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (fm.Minutes == nil) != (tt.want == nil) {
				t.Fatalf("UnmarshalJSON(%s) Minutes = %v, want %v", tt.input, fm.Minutes, tt.want)
			}
			if tt.want != nil && *fm.Minutes != *tt.want {
				t.Errorf("UnmarshalJSON(%s) Minutes = %d, want %d", tt.input, *fm.Minutes, *tt.want)
			}
		})
	}
}

func Test_ImportRecord_ToRecipe(t *testing.T) {
	record := validImportRecord("Pancakes", "https://example.com/pancakes")
	record.PrepTime = FlexibleMinutes{Minutes: intPtr(10)}

	recipe, err := record.ToRecipe(testUserID)
	if err != nil {
		t.Fatalf("ToRecipe() error = %v", err)
	}
	if recipe.UserID != testUserID {
		t.Errorf("ToRecipe() UserID = %v, want %v", recipe.UserID, testUserID)
	}
	if recipe.SourceHost != "example.com" {
		t.Errorf("ToRecipe() SourceHost = %q, want %q", recipe.SourceHost, "example.com")
	}
	if recipe.LegalNote != models.DefaultLegalNote {
		t.Errorf("ToRecipe() LegalNote = %q, want default", recipe.LegalNote)
	}
	if string(recipe.Ingredients) != `["1 cup flour"]` {
		t.Errorf("ToRecipe() Ingredients = %s", recipe.Ingredients)
	}
	if len(recipe.RawJSON) == 0 {
		t.Error("ToRecipe() RawJSON is empty, want record provenance")
	}
	if recipe.PrepTimeMin == nil || *recipe.PrepTimeMin != 10 {
		t.Errorf("ToRecipe() PrepTimeMin = %v, want 10", recipe.PrepTimeMin)
	}
}

func Test_ImportRecord_ToRecipe_Invalid(t *testing.T) {
	record := validImportRecord("   ", "https://example.com/blank")
	if _, err := record.ToRecipe(testUserID); err == nil {
		t.Error("ToRecipe() with blank title should fail")
	}

	record = validImportRecord("Slow Roast", "https://example.com/roast")
	record.CookTime = FlexibleMinutes{Minutes: intPtr(-20)}
	if _, err := record.ToRecipe(testUserID); err == nil {
		t.Error("ToRecipe() with negative timing should fail")
	}
}

func Test_ImportService_Import_SkipsBadRecords(t *testing.T) {
	negative := validImportRecord("Negative Timing", "https://example.com/4")
	negative.TotalTime = FlexibleMinutes{Minutes: intPtr(-10)}

	records := []ImportRecord{
		validImportRecord("Good One", "https://example.com/1"),
		validImportRecord("", "https://example.com/2"), // blank title, rejected
		validImportRecord("Good Two", "https://example.com/3"),
		negative,
	}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	s := NewImportService(repo)
	stats, err := s.Import(context.Background(), testUserID, records)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.Imported != 2 {
		t.Errorf("Import() Imported = %d, want 2", stats.Imported)
	}
	if stats.Failed != 2 {
		t.Errorf("Import() Failed = %d, want 2", stats.Failed)
	}
	failedIdx := map[int]bool{}
	for _, failure := range stats.Failures {
		failedIdx[failure.Index] = true
	}
	if !failedIdx[1] || !failedIdx[3] {
		t.Errorf("Import() Failures = %+v, want indexes 1 and 3", stats.Failures)
	}
}

func Test_ImportService_Import_RequiresUser(t *testing.T) {
	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	s := NewImportService(repo)

	if _, err := s.Import(context.Background(), uuid.Nil, nil); err == nil {
		t.Error("Import() with nil user should fail")
	}
}

func Test_ImportService_ImportFile(t *testing.T) {
	records := []ImportRecord{validImportRecord("From File", "https://example.com/file")}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "recipes.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)

	s := NewImportService(repo)
	stats, err := s.ImportFile(context.Background(), testUserID, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if stats.Imported != 1 {
		t.Errorf("ImportFile() Imported = %d, want 1", stats.Imported)
	}
}

func intPtr(n int) *int {
	return &n
}
