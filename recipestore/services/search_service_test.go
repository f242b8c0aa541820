package services

import (
	"context"
	"testing"

	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories/mock"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

var testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func recipeWithTitle(title string) *models.Recipe {
	return &models.Recipe{
		ID:    uuid.New(),
		Title: title,
	}
}

func Test_SearchService_Search_RanksFuzzyMatches(t *testing.T) {
	candidates := []*models.Recipe{
		recipeWithTitle("Chicken Stock"),
		recipeWithTitle("Chicken Noodle Soup"),
		recipeWithTitle("Chickpea Salad"),
	}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().
		SearchByTitle(gomock.Any(), testUserID, "chicken soup", config.SearchCandidateCap).
		Return(candidates, nil)

	s := NewSearchService(repo)
	got, err := s.Search(context.Background(), testUserID, "chicken soup", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("Search() returned no results")
	}
	if got[0].Title != "Chicken Noodle Soup" {
		t.Errorf("Search() best match = %q, want %q", got[0].Title, "Chicken Noodle Soup")
	}
}

func Test_SearchService_Search_EmptyQueryLists(t *testing.T) {
	listed := []*models.Recipe{recipeWithTitle("Newest Recipe")}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().
		List(gomock.Any(), repositories.SearchFilters{UserID: testUserID, Limit: 10}).
		Return(listed, nil)

	s := NewSearchService(repo)
	got, err := s.Search(context.Background(), testUserID, "   ", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Newest Recipe" {
		t.Errorf("Search() = %v, want the plain listing", got)
	}
}

func Test_SearchService_Search_SubstringFallback(t *testing.T) {
	fallback := []*models.Recipe{recipeWithTitle("BBQ Ribs")}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().
		SearchByTitle(gomock.Any(), testUserID, "bbq", config.SearchCandidateCap).
		Return(nil, nil)
	repo.EXPECT().
		List(gomock.Any(), repositories.SearchFilters{
			UserID: testUserID,
			Query:  "bbq",
			Limit:  config.SearchCandidateCap,
		}).
		Return(fallback, nil)

	s := NewSearchService(repo)
	got, err := s.Search(context.Background(), testUserID, "bbq", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "BBQ Ribs" {
		t.Errorf("Search() = %v, want the substring fallback result", got)
	}
}

func Test_SearchService_Search_LimitApplied(t *testing.T) {
	candidates := []*models.Recipe{
		recipeWithTitle("Tomato Soup"),
		recipeWithTitle("Tomato Salad"),
		recipeWithTitle("Tomato Pasta"),
	}

	repo := mock.NewMockRecipeRepository(gomock.NewController(t))
	repo.EXPECT().
		SearchByTitle(gomock.Any(), testUserID, "tomato", config.SearchCandidateCap).
		Return(candidates, nil)

	s := NewSearchService(repo)
	got, err := s.Search(context.Background(), testUserID, "tomato", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search() returned %d results, want 2", len(got))
	}
}

func Test_normalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "lowercased", title: "Chicken Soup", want: "chicken soup"},
		{name: "whitespace collapsed", title: "  Chicken   Soup  ", want: "chicken soup"},
		{name: "already normalized", title: "chicken soup", want: "chicken soup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeTitle(tt.title); got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
