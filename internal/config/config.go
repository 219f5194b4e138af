// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverDynamo = "dynamo"
	DriverMemory = "memory"
)

// Config holds configuration for the server and CLIs.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// StoreDriver selects the document store backend: "dynamo" or "memory".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"dynamo"`

	UserTable string `env:"USER_TABLE" envDefault:"tinyinsta_users"`
	PostTable string `env:"POST_TABLE" envDefault:"tinyinsta_posts"`

	// DynamoEndpoint overrides the DynamoDB endpoint (DynamoDB Local).
	DynamoEndpoint string `env:"DYNAMO_ENDPOINT"`

	// SeedToken guards the /admin endpoints. Empty disables the check.
	SeedToken string `env:"SEED_TOKEN"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.StoreDriver != DriverDynamo && cfg.StoreDriver != DriverMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}
