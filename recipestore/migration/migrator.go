package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultBatchSize   = 1000
	defaultCollection  = "recipes"
	mongoConnectWindow = 10 * time.Second
)

// Migrator copies recipe documents from a legacy Mongo deployment into
// Postgres. Every document lands through the repository's upsert, so
// re-running a migration is safe: documents already copied are updated
// in place instead of duplicated.
type Migrator struct {
	repo         repositories.RecipeRepository
	mongoDB      *mongo.Database
	collName     string
	batchSize    int
	fallbackUser uuid.UUID
	stats        MigrationStats
}

func NewMigrator(repo repositories.RecipeRepository, fallbackUser uuid.UUID) *Migrator {
	return &Migrator{
		repo:         repo,
		collName:     defaultCollection,
		batchSize:    defaultBatchSize,
		fallbackUser: fallbackUser,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
	}
}

// SetBatchSize overrides the cursor batch size (useful for poolers/timeouts)
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetCollection overrides the source collection name
func (m *Migrator) SetCollection(name string) {
	if name != "" {
		m.collName = name
	}
}

// Connect opens the Mongo connection and verifies it with a ping.
func (m *Migrator) Connect(ctx context.Context, uri, dbName string) error {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectWindow)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	m.mongoDB = client.Database(dbName)
	return nil
}

// Close disconnects the Mongo client.
func (m *Migrator) Close(ctx context.Context) error {
	if m.mongoDB == nil {
		return nil
	}
	return m.mongoDB.Client().Disconnect(ctx)
}

// Stats returns the statistics collected so far.
func (m *Migrator) Stats() MigrationStats {
	return m.stats
}

// MigrateRecipes streams the legacy collection and upserts every
// convertible document. A document the schema would reject is counted
// and skipped; the run continues.
func (m *Migrator) MigrateRecipes(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("migrator is not connected")
	}

	tableStats := &TableStats{}
	m.stats.Tables[m.collName] = tableStats

	coll := m.mongoDB.Collection(m.collName)
	opts := options.Find().SetBatchSize(int32(m.batchSize))
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("failed to open cursor on %s: %w", m.collName, err)
	}
	defer cursor.Close(ctx)

	slog.Info("Legacy migration started",
		slog.String("type", "migration"),
		slog.String("collection", m.collName),
	)

	for cursor.Next(ctx) {
		var doc MongoRecipe
		if err := cursor.Decode(&doc); err != nil {
			tableStats.Read++
			tableStats.Skipped++
			tableStats.SkipNotes = append(tableStats.SkipNotes, fmt.Sprintf("undecodable document: %v", err))
			continue
		}
		tableStats.Read++

		recipe, err := convertRecipe(doc, m.fallbackUser)
		if err != nil {
			tableStats.Skipped++
			tableStats.SkipNotes = append(tableStats.SkipNotes, fmt.Sprintf("%s: %v", doc.ID.Hex(), err))
			slog.Warn("Legacy document skipped",
				slog.String("type", "migration"),
				slog.String("legacy_id", doc.ID.Hex()),
				slog.Any("error", err),
			)
			continue
		}

		if err := m.repo.Upsert(ctx, recipe); err != nil {
			tableStats.Skipped++
			tableStats.SkipNotes = append(tableStats.SkipNotes, fmt.Sprintf("%s: upsert: %v", doc.ID.Hex(), err))
			slog.Warn("Legacy document upsert failed",
				slog.String("type", "migration"),
				slog.String("legacy_id", doc.ID.Hex()),
				slog.Any("error", err),
			)
			continue
		}
		tableStats.Migrated++

		if tableStats.Migrated%m.batchSize == 0 {
			slog.Info("Legacy migration progress",
				slog.String("type", "migration"),
				slog.Int("read", tableStats.Read),
				slog.Int("migrated", tableStats.Migrated),
				slog.Int("skipped", tableStats.Skipped),
			)
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error on %s: %w", m.collName, err)
	}

	m.stats.EndTime = time.Now()
	slog.Info("Legacy migration finished",
		slog.String("type", "migration"),
		slog.String("collection", m.collName),
		slog.Int("read", tableStats.Read),
		slog.Int("migrated", tableStats.Migrated),
		slog.Int("skipped", tableStats.Skipped),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)),
	)
	return nil
}
