// types.go
package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoRecipe is a recipe document from the legacy Mongo store. Field
// shapes are loose on purpose: that deployment never enforced a
// schema, so timings show up as numbers or strings and arrays are
// sometimes missing.
type MongoRecipe struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      string             `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Servings    string             `bson:"servings,omitempty"`
	PrepTime    interface{}        `bson:"prep_time,omitempty"`
	CookTime    interface{}        `bson:"cook_time,omitempty"`
	TotalTime   interface{}        `bson:"total_time,omitempty"`
	Ingredients []string           `bson:"ingredients,omitempty"`
	Steps       []string           `bson:"steps,omitempty"`
	SourceURL   string             `bson:"source_url"`
	Extraction  string             `bson:"extraction,omitempty"`
	LegalNote   string             `bson:"legal_note,omitempty"`
	Raw         bson.M             `bson:"raw,omitempty"`
	CreatedAt   time.Time          `bson:"created_at,omitempty"`
}

// TableStats tracks migration statistics for one collection
type TableStats struct {
	Read      int
	Migrated  int
	Skipped   int
	SkipNotes []string
}

// MigrationStats tracks overall migration progress
type MigrationStats struct {
	Tables    map[string]*TableStats
	StartTime time.Time
	EndTime   time.Time
}
