package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cleanrecipe/recipestore/recipestore/database/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RecipeRepository interface {
	// Writes
	Create(ctx context.Context, recipe *models.Recipe) error
	Upsert(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Reads
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	GetBySource(ctx context.Context, userID uuid.UUID, sourceURL string) (*models.Recipe, error)
	List(ctx context.Context, filters SearchFilters) ([]*models.Recipe, error)
	Count(ctx context.Context, filters SearchFilters) (int, error)
	SearchByTitle(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*models.Recipe, error)
	FindByIngredient(ctx context.Context, userID uuid.UUID, ingredient string) ([]*models.Recipe, error)
	ListHosts(ctx context.Context, userID uuid.UUID) ([]HostCount, error)
}

// HostCount is a per-source-site recipe tally.
type HostCount struct {
	Host  string `bun:"source_host"`
	Count int    `bun:"count"`
}

type recipeRepository struct {
	*BaseRepository
}

func NewRecipeRepository(db *bun.DB) RecipeRepository {
	return &recipeRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new recipe. The database fills id, created_at, and
// updated_at; a duplicate (user_id, source_url) surfaces as a
// ConflictError with no row created.
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return &ValidationError{Entity: "recipe", Detail: err.Error(), Err: err}
	}
	recipe.ApplyDefaults()

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.GetDB().NewInsert().
		Model(recipe).
		ExcludeColumn("id", "created_at", "updated_at").
		Returning("id, created_at, updated_at").
		Exec(timeoutCtx)
	return r.HandleError("create", "recipe", err)
}

// Upsert inserts or, when the (user_id, source_url) pair already
// exists, updates that row in place. created_at and id are never
// touched on the update arm; updated_at is left to the trigger.
func (r *recipeRepository) Upsert(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return &ValidationError{Entity: "recipe", Detail: err.Error(), Err: err}
	}
	recipe.ApplyDefaults()

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.GetDB().NewInsert().
		Model(recipe).
		ExcludeColumn("id", "created_at", "updated_at").
		On("CONFLICT (user_id, source_url) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("servings = EXCLUDED.servings").
		Set("prep_time_min = EXCLUDED.prep_time_min").
		Set("cook_time_min = EXCLUDED.cook_time_min").
		Set("total_time_min = EXCLUDED.total_time_min").
		Set("ingredients = EXCLUDED.ingredients").
		Set("steps = EXCLUDED.steps").
		Set("source_host = EXCLUDED.source_host").
		Set("extraction = EXCLUDED.extraction").
		Set("legal_note = EXCLUDED.legal_note").
		Set("raw_json = EXCLUDED.raw_json").
		Returning("id, created_at, updated_at").
		Exec(timeoutCtx)
	return r.HandleError("upsert", "recipe", err)
}

// Update rewrites a row by primary key. The caller's updated_at is
// discarded: the BEFORE UPDATE trigger overwrites it unconditionally.
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == uuid.Nil {
		return &ValidationError{Entity: "recipe", Detail: "update requires an id"}
	}
	if err := recipe.Validate(); err != nil {
		return &ValidationError{Entity: "recipe", Detail: err.Error(), Err: err}
	}

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewUpdate().
		Model(recipe).
		ExcludeColumn("id", "user_id", "created_at", "updated_at").
		WherePK().
		Exec(timeoutCtx)
	if err != nil {
		return r.HandleErrorWithID("update", "recipe", recipe.ID, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return &NotFoundError{Entity: "recipe", ID: recipe.ID}
	}
	return nil
}

// Delete removes a row by primary key. Hard delete, no soft-delete
// column; a missing row is a NotFoundError.
func (r *recipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.GetDB().NewDelete().
		Model((*models.Recipe)(nil)).
		Where("id = ?", id).
		Exec(timeoutCtx)
	if err != nil {
		return r.HandleErrorWithID("delete", "recipe", id, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return &NotFoundError{Entity: "recipe", ID: id}
	}
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipe models.Recipe
	err := r.GetDB().NewSelect().
		Model(&recipe).
		Where("id = ?", id).
		Scan(timeoutCtx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_id", "recipe", id, err)
	}
	return &recipe, nil
}

func (r *recipeRepository) GetBySource(ctx context.Context, userID uuid.UUID, sourceURL string) (*models.Recipe, error) {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipe models.Recipe
	err := r.GetDB().NewSelect().
		Model(&recipe).
		Where("user_id = ? AND source_url = ?", userID, sourceURL).
		Scan(timeoutCtx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_source", "recipe", sourceURL, err)
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filters SearchFilters) ([]*models.Recipe, error) {
	filters.Normalize()

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipes []*models.Recipe
	q := r.GetDB().NewSelect().Model(&recipes)
	if err := filters.Apply(q).Scan(timeoutCtx); err != nil {
		return nil, r.HandleError("list", "recipe", err)
	}
	return recipes, nil
}

// Count applies the same predicates as List, so the total matches the
// rows a paginating caller will see.
func (r *recipeRepository) Count(ctx context.Context, filters SearchFilters) (int, error) {
	filters.Normalize()

	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.GetDB().NewSelect().Model((*models.Recipe)(nil))
	count, err := filters.applyWhere(q).Count(timeoutCtx)
	return count, r.HandleError("count", "recipe", err)
}

// SearchByTitle returns trigram-similarity candidates for a query,
// best match first. This rides idx_recipes_title_trgm; final ranking
// happens in the search service.
func (r *recipeRepository) SearchByTitle(ctx context.Context, userID uuid.UUID, query string, limit int) ([]*models.Recipe, error) {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipes []*models.Recipe
	q := r.GetDB().NewSelect().
		Model(&recipes).
		Where("title % ?", query).
		OrderExpr("similarity(title, ?) DESC", query).
		Limit(limit)
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(timeoutCtx); err != nil {
		return nil, r.HandleError("search_by_title", "recipe", err)
	}
	return recipes, nil
}

// FindByIngredient runs a JSONB containment query over the
// ingredients array, riding idx_recipes_ingredients_gin.
func (r *recipeRepository) FindByIngredient(ctx context.Context, userID uuid.UUID, ingredient string) ([]*models.Recipe, error) {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var recipes []*models.Recipe
	q := r.GetDB().NewSelect().
		Model(&recipes).
		Where("ingredients @> ?", jsonStringArray(ingredient)).
		Order("created_at DESC")
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(timeoutCtx); err != nil {
		return nil, r.HandleError("find_by_ingredient", "recipe", err)
	}
	return recipes, nil
}

func (r *recipeRepository) ListHosts(ctx context.Context, userID uuid.UUID) ([]HostCount, error) {
	timeoutCtx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var hosts []HostCount
	q := r.GetDB().NewSelect().
		Model((*models.Recipe)(nil)).
		ColumnExpr("source_host").
		ColumnExpr("count(*) AS count").
		Where("source_host IS NOT NULL").
		GroupExpr("source_host").
		OrderExpr("count DESC")
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(timeoutCtx, &hosts); err != nil {
		return nil, r.HandleError("list_hosts", "recipe", err)
	}
	return hosts, nil
}

// jsonStringArray renders a single value as a one-element JSON array
// literal for @> containment matching.
func jsonStringArray(value string) string {
	b, err := json.Marshal([]string{value})
	if err != nil {
		return fmt.Sprintf(`["%s"]`, value)
	}
	return string(b)
}
