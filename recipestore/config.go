package recipestore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cleanrecipe/recipestore/recipestore/database"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig         `toml:"log"`
	DB     database.DBConfig `toml:"db"`
	Import ImportConfig      `toml:"import"`
	Mongo  MongoConfig       `toml:"mongo"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// ImportConfig controls file imports. DefaultUser is the account
// records land on when the caller gives none.
type ImportConfig struct {
	DefaultUser string `toml:"default_user"`
	Parallelism int    `toml:"parallelism"`
}

// MongoConfig points at the legacy deployment for one-off migrations.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}
