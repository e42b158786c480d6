package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	coredatabase "github.com/m3rciful/ledgerbot/core/database"
)

// RemindersConfig controls the filter-expiry reminder job.
type RemindersConfig struct {
	Enabled            bool `yaml:"enabled" envconfig:"REMINDERS_ENABLED"`
	CheckIntervalHours int  `yaml:"check_interval_hours" envconfig:"REMINDERS_CHECK_INTERVAL_HOURS"`
}

// ExportConfig configures the Google Sheets report export.
type ExportConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"EXPORT_ENABLED"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"EXPORT_CREDENTIALS_FILE"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"EXPORT_SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"EXPORT_RANGE"`
}

// Config aggregates core settings with the bot's own sections.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Database  coredatabase.Config `yaml:"database"`
	Reminders RemindersConfig     `yaml:"reminders"`
	Export    ExportConfig        `yaml:"export"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// LoadConfig reads the YAML config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	if cfg.Reminders.Enabled && cfg.Reminders.CheckIntervalHours <= 0 {
		cfg.Reminders.CheckIntervalHours = 24
	}
	if cfg.Export.Enabled {
		if cfg.Export.CredentialsFile == "" || cfg.Export.SpreadsheetID == "" {
			return nil, fmt.Errorf("export.credentials_file and export.spreadsheet_id are required when export is enabled")
		}
	}
	return &cfg, nil
}
