package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

// cachedRecipe represents a cached recipe entry
type cachedRecipe struct {
	recipe    *models.Recipe
	timestamp time.Time
}

// RecipeCache is a read-through cache over the recipe repository.
// Reads hit the LRU first; every write goes to the database and
// invalidates the affected entry.
type RecipeCache struct {
	repo        repositories.RecipeRepository
	cache       *lru.Cache
	cacheExpiry time.Duration
}

func NewRecipeCache(repo repositories.RecipeRepository) *RecipeCache {
	cache, _ := lru.New(config.CacheSize)
	return &RecipeCache{
		repo:        repo,
		cache:       cache,
		cacheExpiry: config.CacheExpiration,
	}
}

// GetByID returns a recipe by id, from cache when the entry is fresh.
func (rc *RecipeCache) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	if cached, ok := rc.cache.Get(id); ok {
		entry := cached.(cachedRecipe)
		if time.Since(entry.timestamp) < rc.cacheExpiry {
			return entry.recipe, nil
		}
		rc.cache.Remove(id)
	}

	recipe, err := rc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rc.cache.Add(id, cachedRecipe{recipe: recipe, timestamp: time.Now()})
	return recipe, nil
}

// Save upserts through to the database and refreshes the cache entry
// with the returned row (id and timestamps filled by the database).
func (rc *RecipeCache) Save(ctx context.Context, recipe *models.Recipe) error {
	if err := rc.repo.Upsert(ctx, recipe); err != nil {
		return err
	}
	rc.cache.Add(recipe.ID, cachedRecipe{recipe: recipe, timestamp: time.Now()})
	return nil
}

// Update writes through and invalidates rather than refreshing: the
// trigger rewrites updated_at server-side, so the in-memory copy is
// already stale.
func (rc *RecipeCache) Update(ctx context.Context, recipe *models.Recipe) error {
	if err := rc.repo.Update(ctx, recipe); err != nil {
		return err
	}
	rc.cache.Remove(recipe.ID)
	return nil
}

// Delete removes the row and drops any cached copy.
func (rc *RecipeCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := rc.repo.Delete(ctx, id); err != nil {
		return err
	}
	rc.cache.Remove(id)
	return nil
}

// Purge empties the cache entirely.
func (rc *RecipeCache) Purge() {
	count := rc.cache.Len()
	rc.cache.Purge()
	slog.Info("Recipe cache purged",
		slog.String("type", "cache"),
		slog.Int("evicted", count),
	)
}
