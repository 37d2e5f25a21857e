package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"bubble-model/src/analysis"
	"bubble-model/src/helpers"
	"bubble-model/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to read config file '%s'", configPath), err)
	}
	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse decodes YAML config. When a preset is named, its parameters are
// loaded first and the model section overrides them field by field.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	var modelConfig models.MConfig
	if head.Preset != "" {
		params, ok := analysis.Preset(head.Preset)
		if !ok {
			return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown preset '%s'", head.Preset), nil)
		}
		modelConfig.Model = params
		modelConfig.Data.Range = analysis.PaperRange()
	}

	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "bubble-model"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Data.Source == "" {
		c.Data.Source = "csv"
	}
	if c.Data.Column == "" {
		c.Data.Column = "Adj Close"
	}
	if c.Data.Calendar == "" {
		c.Data.Calendar = "xnys"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "bubble_runs.db"
	}
	if c.Sweep.Concurrency == 0 {
		c.Sweep.Concurrency = analysis.DefaultSweepConcurrency
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return errors.New("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return errors.New("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return errors.New("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type '%s'", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return errors.New("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}

	// Validate Data configuration
	switch strings.ToLower(c.Data.Source) {
	case "csv", "yahoo":
	default:
		return fmt.Errorf("unsupported data source '%s'", c.Data.Source)
	}
	if len(c.Data.Assets) == 0 {
		return errors.New("at least one asset must be configured")
	}
	seen := make(map[string]bool, len(c.Data.Assets))
	for i, a := range c.Data.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset %d must have a name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("asset '%s' is configured twice", a.Name)
		}
		seen[a.Name] = true
		if c.Data.Source == "csv" && a.Path == "" {
			return fmt.Errorf("asset '%s' needs a path for the csv source", a.Name)
		}
		if c.Data.Source == "yahoo" && a.Symbol == "" {
			return fmt.Errorf("asset '%s' needs a symbol for the yahoo source", a.Name)
		}
		if c.Data.Source == "yahoo" && c.Data.FallbackCSV && a.Path == "" {
			return fmt.Errorf("asset '%s' needs a path for the csv fallback", a.Name)
		}
	}
	if r := c.Data.Range; r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return errors.New("data range ends before it starts")
	}

	// Model parameters are checked again per run; catching them here fails fast.
	if err := analysis.ValidateParameters(c.Model); err != nil {
		return err
	}

	if c.Sweep.Concurrency < 0 {
		return errors.New("sweep concurrency cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return helpers.NewConfigurationError("failed to marshal config to YAML", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return helpers.NewConfigurationError(fmt.Sprintf("failed to write config to file '%s'", configPath), err)
	}

	return nil
}
