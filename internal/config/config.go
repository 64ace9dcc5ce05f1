package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Fieldwork FieldworkConfig `yaml:"fieldwork" envconfig:"FIELDWORK"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// FieldworkConfig identifies the fieldwork project being cleaned.
type FieldworkConfig struct {
	// StartDate anchors wave derivation; completion dates before it abort the run.
	StartDate string `yaml:"start_date" envconfig:"START_DATE" default:"2025-08-04" validate:"required,datetime=2006-01-02"`
	// Sheet selects the worksheet of the raw export; empty means first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
	// FileLabel is embedded in the .sav header (64 bytes max on write).
	FileLabel string `yaml:"file_label" envconfig:"FILE_LABEL" default:"Origin brand tracker - cleaned"`
}

// PipelineConfig holds the explicit row/label policies. Both default to the
// strict setting so a dirty export fails loudly rather than shrinking quietly.
type PipelineConfig struct {
	// OnEmptyCase decides rows that pass every predicate yet answered nothing:
	// "fail" aborts the run, "reject" drops them into the QA workbook.
	OnEmptyCase string `yaml:"on_empty_case" envconfig:"ON_EMPTY_CASE" default:"fail" validate:"oneof=fail reject"`
	// OnUnmappedLabel decides labels absent from the codeframe:
	// "fail" aborts the run, "null" writes system-missing and counts it in QA.
	OnUnmappedLabel string `yaml:"on_unmapped_label" envconfig:"ON_UNMAPPED_LABEL" default:"fail" validate:"oneof=fail null"`
	// QAPreviewRows caps the Cleaned sheet of the QA workbook; 0 means all rows.
	QAPreviewRows int `yaml:"qa_preview_rows" envconfig:"QA_PREVIEW_ROWS" default:"0" validate:"min=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/cleaner.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// Load loads configuration in precedence order: defaults, then the YAML file
// next to the executable (if present), then environment variables. A .env file
// in the working directory is folded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment", "error", err)
	}

	cfg := Default()

	configFile := getConfigFilePath()
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
	}

	// Environment variables take precedence over the file.
	if err := envconfig.Process("SURVEY", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if _, err := c.Fieldwork.Start(); err != nil {
		return fmt.Errorf("invalid survey start date %q: %w", c.Fieldwork.StartDate, err)
	}

	if len(c.Fieldwork.FileLabel) > 64 {
		return fmt.Errorf("survey file label exceeds 64 bytes: %q", c.Fieldwork.FileLabel)
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "both"
	}
	if c.Logging.Format != "json" {
		// Structured output only; text logs break the log shipper.
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/cleaner.log"
	}

	return nil
}

// Start parses the configured survey start date.
func (s FieldworkConfig) Start() (time.Time, error) {
	return time.Parse("2006-01-02", s.StartDate)
}

// getConfigFilePath returns the path to the config file, preferring the copy
// next to the executable, falling back to the working directory.
func getConfigFilePath() string {
	var locations []string
	if paths, err := GetPaths(); err == nil {
		locations = append(locations, paths.ConfigFile)
	}
	locations = append(locations, ConfigFileName, "configs/"+ConfigFileName)

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars only
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Fieldwork: FieldworkConfig{
			StartDate: DefaultSurveyStart,
			FileLabel: "Origin brand tracker - cleaned",
		},
		Pipeline: PipelineConfig{
			OnEmptyCase:     "fail",
			OnUnmappedLabel: "fail",
			QAPreviewRows:   0,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/cleaner.log",
			Development: false,
		},
	}
}
