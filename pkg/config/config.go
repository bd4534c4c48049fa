package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/starkroot/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// DefaultConfigFile is the name of the config file looked up in the
	// config directory.
	DefaultConfigFile = "starkroot.yml"

	// DefaultRetryAttempts is the default number of state update fetch attempts.
	DefaultRetryAttempts = 15
	// DefaultRetryDelay is the default pause between fetch attempts.
	DefaultRetryDelay = 5 * time.Second
	// DefaultRequestTimeout is the default timeout of a single RPC request.
	DefaultRequestTimeout = 30 * time.Second
)

// Version is the version of the application, set at build time.
var Version string

// Config top level struct representing the config for the application.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
	Verifier                 Verifier                 `yaml:"Verifier"`
}

// Load attempts to load the config from the given directory.
func Load(path string) (Config, error) {
	return LoadFile(filepath.Join(path, DefaultConfigFile))
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Unmarshal(configData)
}

// Unmarshal decodes YAML config data on top of the default configuration
// and validates the result. Unknown fields are rejected.
func Unmarshal(configData []byte) (Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Default returns the configuration used for the fields missing in the
// config file.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
		},
		Verifier: Verifier{
			RetryAttempts:  DefaultRetryAttempts,
			RetryDelay:     DefaultRetryDelay,
			RequestTimeout: DefaultRequestTimeout,
			Engines:        AllEngines(),
		},
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := c.ApplicationConfiguration.Validate(); err != nil {
		return fmt.Errorf("invalid ApplicationConfiguration: %w", err)
	}
	if err := c.Verifier.Validate(); err != nil {
		return fmt.Errorf("invalid Verifier configuration: %w", err)
	}
	return nil
}
