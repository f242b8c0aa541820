package repositories

import (
	"strings"

	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SearchFilters defines the available filters for recipe listings.
// Zero values mean "no filter"; the result is always scoped to a user
// and ordered newest first unless SortBy overrides it.
type SearchFilters struct {
	UserID uuid.UUID

	// Title substring match (ILIKE). Fuzzy ranking on top of this is
	// the search service's job, not the repository's.
	Query string

	// Exact source_host match.
	Host string

	// Extraction method filter ("structured" or "readability").
	Extraction string

	// JSONB containment over the ingredients array.
	Ingredient string

	// Upper bound on total_time_min; recipes with no recorded total
	// time are excluded when set.
	MaxTotalTime int

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy   string
	SortDesc bool
}

// Normalize clamps pagination and trims text filters in place.
func (f *SearchFilters) Normalize() {
	f.Query = strings.TrimSpace(f.Query)
	f.Host = strings.TrimSpace(f.Host)
	f.Ingredient = strings.TrimSpace(f.Ingredient)

	if f.Limit <= 0 {
		f.Limit = config.DefaultListLimit
	}
	if f.Limit > config.MaxListLimit {
		f.Limit = config.MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// applyWhere attaches the filter predicates only. List and Count both
// go through here so a paginating caller's total always agrees with
// the rows returned.
func (f *SearchFilters) applyWhere(q *bun.SelectQuery) *bun.SelectQuery {
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Query != "" {
		q = q.Where("title ILIKE ?", "%"+f.Query+"%")
	}
	if f.Host != "" {
		q = q.Where("source_host = ?", f.Host)
	}
	if f.Extraction != "" {
		q = q.Where("extraction = ?", f.Extraction)
	}
	if f.Ingredient != "" {
		q = q.Where("ingredients @> ?", jsonStringArray(f.Ingredient))
	}
	if f.MaxTotalTime > 0 {
		q = q.Where("total_time_min IS NOT NULL AND total_time_min <= ?", f.MaxTotalTime)
	}
	return q
}

// Apply attaches the filters to a recipes select query: predicates,
// sort order, and pagination.
func (f *SearchFilters) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	q = f.applyWhere(q)

	switch f.SortBy {
	case "title":
		if f.SortDesc {
			q = q.Order("title DESC")
		} else {
			q = q.Order("title ASC")
		}
	case "updated_at":
		if f.SortDesc {
			q = q.Order("updated_at DESC")
		} else {
			q = q.Order("updated_at ASC")
		}
	default:
		// Rides idx_recipes_user_created.
		q = q.Order("created_at DESC")
	}

	return q.Limit(f.Limit).Offset(f.Offset)
}
