package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cleanrecipe/recipestore/recipestore"
	"github.com/cleanrecipe/recipestore/recipestore/config"
	"github.com/cleanrecipe/recipestore/recipestore/database"
	"github.com/cleanrecipe/recipestore/recipestore/database/repositories"
	"github.com/cleanrecipe/recipestore/recipestore/logger"
	"github.com/cleanrecipe/recipestore/recipestore/migration"
	"github.com/cleanrecipe/recipestore/recipestore/services"
	"github.com/google/uuid"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Initialize custom logger
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting RecipeStore",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	userFlag := flag.String("user", "", "user id scoping the operation")
	importFile := flag.String("import", "", "import recipes from a JSON file")
	listFlag := flag.Bool("list", false, "list recipes for the user")
	searchFlag := flag.String("search", "", "search recipes by title")
	getFlag := flag.String("get", "", "fetch one recipe by id")
	deleteFlag := flag.String("delete", "", "delete one recipe by id")
	hostsFlag := flag.Bool("hosts", false, "list source sites with recipe counts")
	migrateMongo := flag.Bool("migrate-mongo", false, "copy recipes from the legacy mongo store")
	flag.Parse()

	cfg, err := recipestore.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	logger.LogSystem("Configuration loaded successfully")

	logger.LogSystem("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	logger.LogSystem("Database schema initialized successfully")

	repo := repositories.NewRecipeRepository(db.BunDB())

	userID, err := resolveUser(*userFlag, cfg.Import.DefaultUser)
	if err != nil {
		slog.Error("Invalid user id", slog.Any("error", err))
		os.Exit(-1)
	}

	switch {
	case *importFile != "":
		runImport(ctx, repo, userID, *importFile, cfg.Import.Parallelism)
	case *searchFlag != "":
		runSearch(ctx, repo, userID, *searchFlag)
	case *getFlag != "":
		runGet(ctx, repo, *getFlag)
	case *deleteFlag != "":
		runDelete(ctx, repo, *deleteFlag)
	case *hostsFlag:
		runHosts(ctx, repo, userID)
	case *migrateMongo:
		runMongoMigration(ctx, repo, userID, cfg.Mongo)
	case *listFlag:
		runList(ctx, repo, userID)
	default:
		flag.Usage()
	}
}

func resolveUser(flagValue, configValue string) (uuid.UUID, error) {
	value := flagValue
	if value == "" {
		value = configValue
	}
	if value == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(value)
}

func runImport(ctx context.Context, repo repositories.RecipeRepository, userID uuid.UUID, file string, parallelism int) {
	importer := services.NewImportService(repo)
	importer.SetParallelism(parallelism)
	stats, err := importer.ImportFile(ctx, userID, file)
	if err != nil {
		logger.LogError("Import failed", err, slog.String("file", file))
		os.Exit(-1)
	}
	logger.LogImport(file, stats.Imported, stats.Failed, stats.Duration, nil)
	for _, failure := range stats.Failures {
		fmt.Printf("  skipped [%d] %s: %s\n", failure.Index, failure.Title, failure.Reason)
	}
}

func runSearch(ctx context.Context, repo repositories.RecipeRepository, userID uuid.UUID, query string) {
	search := services.NewSearchService(repo)
	results, err := search.Search(ctx, userID, query, config.DefaultListLimit)
	if err != nil {
		logger.LogError("Search failed", err, slog.String("query", query))
		os.Exit(-1)
	}
	for _, recipe := range results {
		fmt.Printf("%s  %s  (%s)\n", recipe.ID, recipe.Title, recipe.SourceHost)
	}
	slog.Info("Search finished",
		slog.String("type", "search"),
		slog.String("query", query),
		slog.Int("results", len(results)))
}

func runGet(ctx context.Context, repo repositories.RecipeRepository, idValue string) {
	id, err := uuid.Parse(idValue)
	if err != nil {
		slog.Error("Invalid recipe id", slog.Any("error", err))
		os.Exit(-1)
	}
	recipe, err := repo.GetByID(ctx, id)
	if err != nil {
		logger.LogError("Fetch failed", err, slog.String("id", idValue))
		os.Exit(-1)
	}
	out, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		logger.LogError("Encode failed", err)
		os.Exit(-1)
	}
	fmt.Println(string(out))
}

func runDelete(ctx context.Context, repo repositories.RecipeRepository, idValue string) {
	id, err := uuid.Parse(idValue)
	if err != nil {
		slog.Error("Invalid recipe id", slog.Any("error", err))
		os.Exit(-1)
	}
	if err := repo.Delete(ctx, id); err != nil {
		logger.LogError("Delete failed", err, slog.String("id", idValue))
		os.Exit(-1)
	}
	slog.Info("Recipe deleted", slog.String("id", idValue))
}

func runHosts(ctx context.Context, repo repositories.RecipeRepository, userID uuid.UUID) {
	hosts, err := repo.ListHosts(ctx, userID)
	if err != nil {
		logger.LogError("Host listing failed", err)
		os.Exit(-1)
	}
	for _, host := range hosts {
		fmt.Printf("%6d  %s\n", host.Count, host.Host)
	}
}

func runList(ctx context.Context, repo repositories.RecipeRepository, userID uuid.UUID) {
	recipes, err := repo.List(ctx, repositories.SearchFilters{UserID: userID})
	if err != nil {
		logger.LogError("Listing failed", err)
		os.Exit(-1)
	}
	for _, recipe := range recipes {
		fmt.Printf("%s  %s  (%s)\n", recipe.ID, recipe.Title, recipe.CreatedAt.Format(time.DateOnly))
	}
}

func runMongoMigration(ctx context.Context, repo repositories.RecipeRepository, userID uuid.UUID, cfg recipestore.MongoConfig) {
	if cfg.URI == "" || cfg.Database == "" {
		slog.Error("Mongo migration requires [mongo] uri and database in the config")
		os.Exit(-1)
	}

	migrator := migration.NewMigrator(repo, userID)
	if cfg.Collection != "" {
		migrator.SetCollection(cfg.Collection)
	}

	if err := migrator.Connect(ctx, cfg.URI, cfg.Database); err != nil {
		logger.LogError("Mongo connection failed", err)
		os.Exit(-1)
	}
	defer migrator.Close(ctx)

	if err := migrator.MigrateRecipes(ctx); err != nil {
		logger.LogError("Migration failed", err)
		os.Exit(-1)
	}
}
