// Package config loads and validates the application configuration.
//
// Configuration comes from a YAML file with per-concern sections; a handful
// of environment variables override file values for deployment knobs that
// differ per machine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"dupescan/internal/partition"
	"dupescan/internal/strategy"
	"dupescan/internal/types"
)

// DetectionConfig tunes the duplicate detection engine.
type DetectionConfig struct {
	// KeyFields are compared for exact-key matches.
	// Default: id, source_url
	KeyFields []string `yaml:"key_fields"`

	// ContentFields feed the derived content hash.
	// Default: summary, tags
	ContentFields []string `yaml:"content_fields"`

	// TitleField is the field title-similarity compares.
	// Default: name
	TitleField string `yaml:"title_field"`

	// FuzzyThreshold is the 0-100 score fuzzy key matching accepts at.
	// Default: 85
	FuzzyThreshold int `yaml:"fuzzy_threshold"`

	// TitleThreshold is the acceptance score for title similarity.
	// Default: 80
	TitleThreshold int `yaml:"title_threshold"`

	// ImageHashThreshold is the maximum average perceptual-hash distance.
	// Default: 5
	ImageHashThreshold float64 `yaml:"image_hash_threshold"`

	// MinFileSizeMB excludes files below this size from analysis.
	// Default: 0.1
	MinFileSizeMB float64 `yaml:"min_file_size_mb"`
}

// PartitionsConfig tunes capacity-aware placement.
type PartitionsConfig struct {
	// BaseName prefixes generated container names.
	// Default: file-metadata
	BaseName string `yaml:"base_name"`

	// RowCeiling is the maximum data rows per partition.
	// Default: 4500 (90% of the backend's 5000-row tab limit)
	RowCeiling int `yaml:"row_ceiling"`

	// MaxPartitionsPerContainer bounds partitions per container.
	// Default: 10
	MaxPartitionsPerContainer int `yaml:"max_partitions_per_container"`

	// BatchSize is the maximum rows per write chunk.
	// Default: 100
	BatchSize int `yaml:"batch_size"`

	// WriteRetries is attempts per chunk write. Default: 3
	WriteRetries int `yaml:"write_retries"`

	// PaceIntervalMS spaces chunk writes, in milliseconds. Default: 100
	PaceIntervalMS int `yaml:"pace_interval_ms"`

	// RegistryPath is where the partition registry persists.
	// Default: .dupescan/registry.json
	RegistryPath string `yaml:"registry_path"`

	// DatabasePath is the sqlite backend location.
	// Default: .dupescan/metadata.db
	DatabasePath string `yaml:"database_path"`
}

// ScanConfig selects and tunes the source scanner.
type ScanConfig struct {
	// Source is "gcs" or "static". Default: static
	Source string `yaml:"source"`

	// Bucket and Prefix locate the GCS source.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// CredentialsFile is a service account key path. Empty uses
	// Application Default Credentials.
	CredentialsFile string `yaml:"credentials_file"`

	// FixturePath is a JSON record file for the static source.
	FixturePath string `yaml:"fixture_path"`

	// PageSize is records per scan page. Default: 200
	PageSize int `yaml:"page_size"`

	// MaxFiles caps the scan; 0 is unlimited.
	MaxFiles int `yaml:"max_files"`
}

// IngestConfig controls what happens to duplicates at ingest time.
type IngestConfig struct {
	// DuplicateAction is skip, flag, or allow. Default: skip
	DuplicateAction types.DuplicateAction `yaml:"duplicate_action"`
}

// LoggingConfig selects the logger profile.
type LoggingConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// Config is the complete application configuration.
type Config struct {
	Detection  DetectionConfig  `yaml:"detection"`
	Partitions PartitionsConfig `yaml:"partitions"`
	Scan       ScanConfig       `yaml:"scan"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Default returns the standard configuration.
func Default() *Config {
	sc := strategy.DefaultConfig()
	po := partition.DefaultOptions()
	return &Config{
		Detection: DetectionConfig{
			KeyFields:          sc.KeyFields,
			ContentFields:      sc.ContentFields,
			TitleField:         sc.TitleField,
			FuzzyThreshold:     sc.FuzzyThreshold,
			TitleThreshold:     sc.TitleThreshold,
			ImageHashThreshold: sc.ImageHashThreshold,
			MinFileSizeMB:      sc.MinFileSizeMB,
		},
		Partitions: PartitionsConfig{
			BaseName:                  po.BaseName,
			RowCeiling:                po.RowCeiling,
			MaxPartitionsPerContainer: po.MaxPartitionsPerContainer,
			BatchSize:                 po.BatchSize,
			WriteRetries:              po.WriteRetries,
			PaceIntervalMS:            100,
			RegistryPath:              ".dupescan/registry.json",
			DatabasePath:              ".dupescan/metadata.db",
		},
		Scan: ScanConfig{
			Source:   "static",
			PageSize: 200,
		},
		Ingest:  IngestConfig{DuplicateAction: types.ActionSkip},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path. A missing file yields defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvironmentOverrides lets deployment-specific knobs beat the file.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("DUPESCAN_BUCKET"); v != "" {
		cfg.Scan.Bucket = v
	}
	if v := os.Getenv("DUPESCAN_CREDENTIALS"); v != "" {
		cfg.Scan.CredentialsFile = v
	}
	if v := os.Getenv("DUPESCAN_DB_PATH"); v != "" {
		cfg.Partitions.DatabasePath = v
	}
	if v := os.Getenv("DUPESCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DUPESCAN_ROW_CEILING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Partitions.RowCeiling = n
		}
	}
}

// Validate checks every section. Range checks live with the structs the
// sections build, so this mostly delegates.
func (c *Config) Validate() error {
	if err := c.Strategy().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	popts := c.PartitionOptions()
	if err := popts.Validate(); err != nil {
		return fmt.Errorf("partitions: %w", err)
	}
	switch c.Scan.Source {
	case "static":
	case "gcs":
		if c.Scan.Bucket == "" {
			return fmt.Errorf("scan: bucket is required for the gcs source")
		}
	default:
		return fmt.Errorf("scan: unknown source %q (want gcs or static)", c.Scan.Source)
	}
	if c.Scan.PageSize < 1 {
		return fmt.Errorf("scan: page_size must be at least 1 (got %d)", c.Scan.PageSize)
	}
	if !c.Ingest.DuplicateAction.IsValid() {
		return fmt.Errorf("ingest: unknown duplicate_action %q", c.Ingest.DuplicateAction)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}

// Strategy builds the detection engine configuration.
func (c *Config) Strategy() strategy.Config {
	sc := strategy.DefaultConfig()
	sc.KeyFields = c.Detection.KeyFields
	sc.ContentFields = c.Detection.ContentFields
	sc.TitleField = c.Detection.TitleField
	sc.FuzzyThreshold = c.Detection.FuzzyThreshold
	sc.TitleThreshold = c.Detection.TitleThreshold
	sc.ImageHashThreshold = c.Detection.ImageHashThreshold
	sc.MinFileSizeMB = c.Detection.MinFileSizeMB
	return sc
}

// PartitionOptions builds the partition manager configuration.
func (c *Config) PartitionOptions() partition.Options {
	opts := partition.DefaultOptions()
	opts.BaseName = c.Partitions.BaseName
	opts.RowCeiling = c.Partitions.RowCeiling
	opts.MaxPartitionsPerContainer = c.Partitions.MaxPartitionsPerContainer
	opts.BatchSize = c.Partitions.BatchSize
	opts.WriteRetries = c.Partitions.WriteRetries
	opts.PaceInterval = time.Duration(c.Partitions.PaceIntervalMS) * time.Millisecond
	opts.RegistryPath = c.Partitions.RegistryPath
	opts.KeyFields = c.Detection.KeyFields
	return opts
}

// WriteDefault writes the default configuration as YAML to path, refusing
// to clobber an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
