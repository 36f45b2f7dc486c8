// dupescan finds duplicate files in a source repository and files their
// metadata into capacity-bounded partitions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dupescan/internal/backend"
	"dupescan/internal/config"
	"dupescan/internal/engine"
	"dupescan/internal/partition"
	"dupescan/internal/scan"
	"dupescan/internal/types"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dupescan",
	Short: "Duplicate detection and capacity-aware metadata filing",
	Long: `dupescan scans a file repository, detects duplicates with a set of
layered strategies (exact keys, fuzzy names, content hashes, perceptual
image hashes, size heuristics), and files metadata rows into bounded
partitions that spill over as they fill.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "dupescan.yaml", "config file path")
}

// app bundles the collaborators every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *backend.SQLite
	eng    *engine.Engine
	mgr    *partition.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg.Strategy(), logger)
	if err != nil {
		return nil, err
	}

	store, err := backend.NewSQLite(cfg.Partitions.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	reg, err := partition.LoadRegistry(cfg.Partitions.RegistryPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	mgr, err := partition.NewManager(store, reg, eng, cfg.PartitionOptions(), logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, eng: eng, mgr: mgr}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	_ = a.store.Close()
}

// scanner builds the configured source scanner.
func (a *app) scanner(ctx context.Context) (scan.Scanner, error) {
	switch a.cfg.Scan.Source {
	case "gcs":
		client, err := scan.NewGCSClient(ctx, a.cfg.Scan.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return scan.NewGCS(client, a.cfg.Scan.Bucket, a.cfg.Scan.Prefix)
	case "static":
		records, err := loadFixture(a.cfg.Scan.FixturePath)
		if err != nil {
			return nil, err
		}
		return scan.NewStatic(records), nil
	}
	return nil, fmt.Errorf("unknown scan source %q", a.cfg.Scan.Source)
}

// loadFixture reads a JSON array of file records. An empty path yields an
// empty source.
func loadFixture(path string) ([]types.FileRecord, error) {
	if path == "" {
		return []types.FileRecord{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	var records []types.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	return records, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
