// Package config loads runtime settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"manifest_parser/internal/aggregate"
	"manifest_parser/internal/assembler"
	"manifest_parser/internal/classifier"
	"manifest_parser/internal/extractor"
	"manifest_parser/internal/header"
	"manifest_parser/internal/pdftext"
	"manifest_parser/internal/publish"
	"manifest_parser/internal/storage"
)

// Config holds all application configuration.
type Config struct {
	Parser  ParserConfig
	Storage storage.Config
	NATS    NATSConfig
	API     APIConfig
	Log     LogConfig
}

// ParserConfig holds the manifest pipeline settings.
type ParserConfig struct {
	Variant      classifier.Variant
	Flush        assembler.FlushPolicy
	ExtractMode  pdftext.Mode
	HeaderPages  int
	SortByPieces bool
}

// NATSConfig holds the event publishing settings. An empty URL disables publishing.
type NATSConfig struct {
	URL     string
	Subject string
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Load reads .env files (missing files are ignored; the default is ".env")
// then builds the configuration from the environment. Variables already set
// in the environment win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment only.
func FromEnv() (*Config, error) {
	variant, err := classifier.ParseVariant(getEnv("MANIFEST_VARIANT", "loose"))
	if err != nil {
		return nil, err
	}
	flush, err := assembler.ParseFlushPolicy(getEnv("MANIFEST_FLUSH_POLICY", "always"))
	if err != nil {
		return nil, err
	}
	mode, err := pdftext.ParseMode(getEnv("MANIFEST_EXTRACT_MODE", string(pdftext.ModeFragments)))
	if err != nil {
		return nil, err
	}

	def := storage.DefaultConfig()
	cfg := &Config{
		Parser: ParserConfig{
			Variant:      variant,
			Flush:        flush,
			ExtractMode:  mode,
			HeaderPages:  getEnvAsInt("MANIFEST_HEADER_PAGES", header.DefaultPages),
			SortByPieces: getEnvAsBool("MANIFEST_SORT_BY_PIECES", false),
		},
		Storage: storage.Config{
			SQLitePath: getEnv("SQLITE_PATH", ""),
			Postgres: storage.PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", def.Postgres.Host),
				Port:     getEnvAsInt("POSTGRES_PORT", def.Postgres.Port),
				Database: getEnv("POSTGRES_DATABASE", def.Postgres.Database),
				User:     getEnv("POSTGRES_USER", def.Postgres.User),
				Password: getEnv("POSTGRES_PASSWORD", def.Postgres.Password),
			},
			ClickHouse: storage.ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", def.ClickHouse.Host),
				Port:     getEnvAsInt("CLICKHOUSE_PORT", def.ClickHouse.Port),
				Database: getEnv("CLICKHOUSE_DATABASE", def.ClickHouse.Database),
				User:     getEnv("CLICKHOUSE_USER", def.ClickHouse.User),
				Password: getEnv("CLICKHOUSE_PASSWORD", def.ClickHouse.Password),
			},
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", publish.DefaultSubject),
		},
		API: APIConfig{
			Port:        getEnvAsInt("API_PORT", 8081),
			AuthEnabled: getEnvAsBool("API_AUTH", false),
			APIKeys:     SplitList(getEnv("API_KEYS", "")),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.API.AuthEnabled && len(cfg.API.APIKeys) == 0 {
		return nil, errors.New("API_AUTH is set but API_KEYS is empty")
	}
	return cfg, nil
}

// ExtractorOptions returns the pipeline options for the parser settings.
func (c ParserConfig) ExtractorOptions(filter aggregate.Filter) extractor.Options {
	return extractor.Options{
		Parse:        assembler.Options{Variant: c.Variant, Flush: c.Flush},
		HeaderPages:  c.HeaderPages,
		SortByPieces: c.SortByPieces,
		Filter:       filter,
		ExtractMode:  c.ExtractMode,
	}
}

// SplitList splits a comma-separated list, trimming entries and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
