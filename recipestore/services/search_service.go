package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
)

// RecipeSearchItems implements fuzzy.Source for recipe searching
type RecipeSearchItems []RecipeSearchItem

// RecipeSearchItem represents a single searchable recipe
type RecipeSearchItem struct {
	Recipe *models.Recipe
	Title  string
}

// String returns the searchable string for fuzzy matching
func (r RecipeSearchItem) String() string {
	return r.Title
}

// Len returns the length of the collection
func (items RecipeSearchItems) Len() int {
	return len(items)
}

// String returns the searchable string at index i
func (items RecipeSearchItems) String(i int) string {
	return items[i].Title
}

// SearchService ranks recipes for a text query. The database narrows
// the candidate set with trigram similarity; fuzzy matching over the
// normalized titles produces the final order.
type SearchService struct {
	repo repositories.RecipeRepository
}

func NewSearchService(repo repositories.RecipeRepository) *SearchService {
	return &SearchService{repo: repo}
}

// Search returns the user's recipes ranked against query, best match
// first. An empty query degrades to a plain newest-first listing.
func (s *SearchService) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*models.Recipe, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 || limit > config.MaxSearchResults {
		limit = config.MaxSearchResults
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	if query == "" {
		return s.repo.List(timeoutCtx, repositories.SearchFilters{
			UserID: userID,
			Limit:  limit,
		})
	}

	// Stage 1: trigram candidates from the database.
	candidates, err := s.repo.SearchByTitle(timeoutCtx, userID, query, config.SearchCandidateCap)
	if err != nil {
		return nil, err
	}

	// Trigram similarity misses very short queries and abbreviations;
	// fall back to a substring listing so they still resolve.
	if len(candidates) == 0 {
		candidates, err = s.repo.List(timeoutCtx, repositories.SearchFilters{
			UserID: userID,
			Query:  query,
			Limit:  config.SearchCandidateCap,
		})
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Stage 2: fuzzy re-rank over normalized titles.
	searchItems := make(RecipeSearchItems, len(candidates))
	for i, recipe := range candidates {
		searchItems[i] = RecipeSearchItem{
			Recipe: recipe,
			Title:  normalizeTitle(recipe.Title),
		}
	}

	matches := fuzzy.FindFrom(normalizeTitle(query), searchItems)
	slog.Debug("Recipe search ranked",
		slog.String("type", "search"),
		slog.String("query", query),
		slog.Int("candidates", len(candidates)),
		slog.Int("matches", len(matches)),
	)

	if len(matches) == 0 {
		// Keep the database's similarity order when fuzzy finds no
		// subsequence match at all.
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, nil
	}

	results := make([]*models.Recipe, 0, limit)
	for _, match := range matches {
		results = append(results, searchItems[match.Index].Recipe)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// normalizeTitle lowercases and collapses whitespace so matching is
// insensitive to spacing and case.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
