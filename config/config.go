/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	regerrors "github.com/suparena/indexregistry/errors"
)

// Supported backends.
const (
	BackendElasticsearch = "elasticsearch"
	BackendOpenSearch    = "opensearch"
	BackendDynamoDB      = "dynamodb"
	BackendMemory        = "memory"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INDEXREGISTRY_"

// Config selects and configures the search backend.
type Config struct {
	Backend   string   `yaml:"backend"`
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`

	// DynamoDB
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Table     string `yaml:"table"`
	Endpoint  string `yaml:"endpoint"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Backend:   BackendElasticsearch,
		Addresses: []string{"http://localhost:9200"},
		LogLevel:  "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the given .env files (".env" when none are named) and the
// process environment. Missing .env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	set("BACKEND", &c.Backend)
	set("USERNAME", &c.Username)
	set("PASSWORD", &c.Password)
	set("REGION", &c.Region)
	set("ACCESS_KEY", &c.AccessKey)
	set("SECRET_KEY", &c.SecretKey)
	set("TABLE", &c.Table)
	set("ENDPOINT", &c.Endpoint)
	set("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup(EnvPrefix + "ADDRESSES"); ok {
		c.Addresses = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, regerrors.NewValidationError("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	return lvl, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))

	switch c.Backend {
	case BackendElasticsearch, BackendOpenSearch:
		if len(c.Addresses) == 0 {
			return regerrors.NewValidationError("addresses", fmt.Sprintf("at least one address is required for %s", c.Backend))
		}
	case BackendDynamoDB:
		if c.Table == "" {
			return regerrors.NewValidationError("table", "required for dynamodb")
		}
		if c.Region == "" {
			return regerrors.NewValidationError("region", "required for dynamodb")
		}
	case BackendMemory:
	default:
		return regerrors.NewValidationError("backend", fmt.Sprintf("unsupported backend %q", c.Backend))
	}

	_, err := c.Level()
	return err
}
