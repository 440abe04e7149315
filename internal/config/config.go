// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. A command-line flag:      --config=/path/to/config.yaml
//  2. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  3. Plain environment variables (optionally from a .env file) when no
//     YAML file is given at all.
//
// Every field has a default, so the program runs with no configuration:
// the library then lives in books.txt and members.txt in the working
// directory.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// Storage is embedded so its fields read as cfg.Storage.BooksFile.
	Storage `yaml:"storage"`
}

// Storage holds settings for library persistence.
// Nested under storage: in the YAML file.
type Storage struct {
	// Backend selects where the library is saved: "file" or "sqlite".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`

	BooksFile   string `yaml:"books_file" env:"BOOKS_FILE" env-default:"books.txt"`
	MembersFile string `yaml:"members_file" env:"MEMBERS_FILE" env-default:"members.txt"`

	// SQLitePath is only read when Backend is "sqlite".
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"library.db"`
}

// Load reads the configuration. path may be empty, in which case
// CONFIG_PATH is consulted and, failing that, only the environment.
func Load(path string) (*Config, error) {
	// A missing .env is normal; the variables may come from the OS.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		// ReadConfig reads the YAML file, then applies env overrides and
		// env-default values.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be %q or %q",
			cfg.Storage.Backend, BackendFile, BackendSQLite)
	}

	return &cfg, nil
}
