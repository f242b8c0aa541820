package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	SearchTimeout       = 10 * time.Second
	BatchQueryTimeout   = 30 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	CacheExpiration = 5 * time.Minute
	CacheSize       = 10000

	// Batch processing
	DefaultBatchSize   = 100
	ImportParallelism  = 4
	MaxRetries         = 3
)

// Search and Filter Constants
const (
	MaxSearchResults   = 100
	DefaultListLimit   = 50
	MaxListLimit       = 200
	SearchCandidateCap = 500
)
