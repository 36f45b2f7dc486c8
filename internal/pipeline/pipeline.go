// Package pipeline wires scanning, detection, and placement into runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dupescan/internal/engine"
	"dupescan/internal/partition"
	"dupescan/internal/scan"
	"dupescan/internal/types"
)

// Options tunes one pipeline run.
type Options struct {
	PageSize int
	MaxFiles int
	Action   types.DuplicateAction
}

// Pipeline owns the scan → detect → append sequence.
type Pipeline struct {
	scanner scan.Scanner
	engine  *engine.Engine
	manager *partition.Manager
	opts    Options
	logger  *zap.Logger
}

// IngestStats summarizes one ingest run.
type IngestStats struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Scanned    int                 `json:"files_scanned"`
	Append     *types.AppendResult `json:"append"`
}

// New assembles a pipeline. The manager may be nil for analysis-only use.
func New(scanner scan.Scanner, eng *engine.Engine, mgr *partition.Manager, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("detection engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize < 1 {
		opts.PageSize = 200
	}
	if opts.Action == "" {
		opts.Action = types.ActionSkip
	}
	if !opts.Action.IsValid() {
		return nil, fmt.Errorf("invalid duplicate action: %s", opts.Action)
	}
	return &Pipeline{scanner: scanner, engine: eng, manager: mgr, opts: opts, logger: logger}, nil
}

// Ingest scans the source and places every record through the partition
// manager, applying the configured duplicate action. Scan failures are
// fatal; append failures surface through the result counts.
func (p *Pipeline) Ingest(ctx context.Context) (*IngestStats, error) {
	if p.manager == nil {
		return nil, fmt.Errorf("ingest requires a partition manager")
	}

	stats := &IngestStats{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	p.logger.Info("ingest run starting", zap.String("run_id", stats.RunID))

	records, err := scan.All(ctx, p.scanner, p.opts.PageSize, p.opts.MaxFiles)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	stats.Scanned = len(records)

	// Earlier runs' rows must count as duplicates too.
	if err := p.manager.LoadCorpus(ctx); err != nil {
		return nil, fmt.Errorf("failed to load persisted corpus: %w", err)
	}

	result, err := p.manager.Append(ctx, records, p.opts.Action)
	if err != nil {
		return nil, fmt.Errorf("append failed: %w", err)
	}
	stats.Append = result
	stats.FinishedAt = time.Now().UTC()

	p.logger.Info("ingest run complete",
		zap.String("run_id", stats.RunID),
		zap.Int("scanned", stats.Scanned),
		zap.Int("accepted", result.AcceptedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("flagged", result.FlaggedRows),
		zap.Int("failed", result.FailedRows))
	return stats, nil
}

// Analyze scans the source and runs full duplicate detection without
// writing anything.
func (p *Pipeline) Analyze(ctx context.Context) (*types.DetectionResult, error) {
	records, err := scan.All(ctx, p.scanner, p.opts.PageSize, p.opts.MaxFiles)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if records == nil {
		records = []types.FileRecord{}
	}
	return p.engine.DetectAll(records)
}
