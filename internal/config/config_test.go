package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/types"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.ActionSkip, cfg.Ingest.DuplicateAction)
	assert.Equal(t, 4500, cfg.Partitions.RowCeiling)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Detection.FuzzyThreshold, cfg.Detection.FuzzyThreshold)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
detection:
  fuzzy_threshold: 92
partitions:
  row_ceiling: 100
  base_name: archive
scan:
  source: gcs
  bucket: my-bucket
ingest:
  duplicate_action: flag
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 92, cfg.Detection.FuzzyThreshold)
	assert.Equal(t, 100, cfg.Partitions.RowCeiling)
	assert.Equal(t, "archive", cfg.Partitions.BaseName)
	assert.Equal(t, "my-bucket", cfg.Scan.Bucket)
	assert.Equal(t, types.ActionFlag, cfg.Ingest.DuplicateAction)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Detection.TitleThreshold, cfg.Detection.TitleThreshold)
	assert.Equal(t, Default().Partitions.BatchSize, cfg.Partitions.BatchSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad threshold", "detection:\n  fuzzy_threshold: 200\n"},
		{"bad source", "scan:\n  source: ftp\n"},
		{"gcs without bucket", "scan:\n  source: gcs\n"},
		{"bad action", "ingest:\n  duplicate_action: drop\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  source: gcs\n  bucket: from-file\n"), 0644))

	t.Setenv("DUPESCAN_BUCKET", "from-env")
	t.Setenv("DUPESCAN_ROW_CEILING", "250")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Scan.Bucket)
	assert.Equal(t, 250, cfg.Partitions.RowCeiling)
}

func TestStrategyAndPartitionBridges(t *testing.T) {
	cfg := Default()
	cfg.Detection.FuzzyThreshold = 90
	cfg.Partitions.RowCeiling = 77
	cfg.Partitions.PaceIntervalMS = 0

	sc := cfg.Strategy()
	assert.Equal(t, 90, sc.FuzzyThreshold)

	opts := cfg.PartitionOptions()
	assert.Equal(t, 77, opts.RowCeiling)
	assert.Zero(t, opts.PaceInterval)
	assert.Equal(t, cfg.Detection.KeyFields, opts.KeyFields,
		"flag action marks the same fields detection keys on")
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Partitions.RowCeiling, cfg.Partitions.RowCeiling)

	assert.Error(t, WriteDefault(path), "existing files are never clobbered")
}
