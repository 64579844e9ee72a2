// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local .env file, when
present, is loaded first with godotenv so development setups need no exports.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to components through
their constructors. No global variables hold config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// # Configuration Schema

// Config holds all runtime configuration for the account API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL"        envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) for sessions and the user cache
	RedisURL         string `env:"REDIS_URL,required"`
	UserCacheEnabled bool   `env:"USER_CACHE_ENABLED" envDefault:"true"`

	// Sessions
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// BcryptCost is the work factor of the credential hasher.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Image host: "minio" or "s3"
	ImageBackend       string `env:"IMAGE_BACKEND"         envDefault:"minio"`
	ImagePublicBaseURL string `env:"IMAGE_PUBLIC_BASE_URL"`
	ImageMaxBytes      int64  `env:"IMAGE_MAX_BYTES"       envDefault:"5242880"`

	// Object Storage (S3-compatible)
	S3Bucket    string `env:"S3_BUCKET"     envDefault:"avatars"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// MinIO
	MinioEndpoint  string `env:"MINIO_ENDPOINT"   envDefault:"localhost:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`

	// Cross-Origin Resource Sharing, comma separated. "*" allows any origin.
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load(envFiles ...string) (*Config, error) {

	// A missing .env is normal outside development.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks cross-field constraints that struct tags cannot express.
func (c *Config) validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("config: SESSION_SECRET must be at least 16 characters")
	}
	switch c.ImageBackend {
	case "minio", "s3":
	default:
		return fmt.Errorf("config: unsupported IMAGE_BACKEND %q", c.ImageBackend)
	}
	// CORS echoes the origin with credentials allowed, so a wildcard would let
	// any site make authenticated calls.
	if c.IsProduction() && slices.Contains(c.AllowedOrigins(), "*") {
		return errors.New("config: CORS_ORIGINS must list explicit origins in production")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits CORSOrigins into a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
