// Package partition places scanned records into capacity-bounded storage.
//
// A container holds a bounded number of partitions; each partition accepts
// rows up to a ceiling set below the backend's hard limit. When the active
// partition fills, writes spill into the next partition; when a container
// reaches its partition cap, a new container is created. The registry
// tracks what exists and how full it is.
package partition

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dupescan/internal/backend"
	"dupescan/internal/types"
)

// DuplicateChecker decides whether a candidate duplicates a record that is
// already persisted. The detection engine satisfies this.
type DuplicateChecker interface {
	CheckDuplicate(candidate *types.FileRecord, corpus []types.FileRecord) (*types.MatchResult, error)
}

// Options configures the partition manager.
type Options struct {
	// BaseName is the prefix for generated container and partition names.
	BaseName string

	// RowCeiling is the maximum data rows per partition. The default sits
	// at 90% of the backend's 5000-row tab limit so writes never race the
	// hard cap.
	RowCeiling int

	// MaxPartitionsPerContainer bounds partitions per container.
	MaxPartitionsPerContainer int

	// BatchSize is the maximum rows per write chunk.
	BatchSize int

	// WriteRetries is the number of attempts per chunk write.
	WriteRetries int

	// RetryDelay is the wait between write attempts.
	RetryDelay time.Duration

	// PaceInterval spaces chunk writes to stay under backend quotas.
	// Zero disables pacing.
	PaceInterval time.Duration

	// KeyFields are the fields the flag action marks on duplicate rows.
	KeyFields []string

	// RegistryPath, when set, persists the registry after each append.
	RegistryPath string
}

// DefaultOptions returns the standard manager configuration.
func DefaultOptions() Options {
	return Options{
		BaseName:                  "file-metadata",
		RowCeiling:                4500,
		MaxPartitionsPerContainer: 10,
		BatchSize:                 100,
		WriteRetries:              3,
		RetryDelay:                200 * time.Millisecond,
		PaceInterval:              100 * time.Millisecond,
		KeyFields:                 []string{"id", "source_url"},
	}
}

// Validate checks option values are in range.
func (o *Options) Validate() error {
	if o.BaseName == "" {
		return fmt.Errorf("base name is required")
	}
	if o.RowCeiling < 1 {
		return fmt.Errorf("row ceiling must be at least 1 (got %d)", o.RowCeiling)
	}
	if o.MaxPartitionsPerContainer < 1 {
		return fmt.Errorf("max partitions per container must be at least 1 (got %d)", o.MaxPartitionsPerContainer)
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1 (got %d)", o.BatchSize)
	}
	if o.WriteRetries < 1 {
		return fmt.Errorf("write retries must be at least 1 (got %d)", o.WriteRetries)
	}
	return nil
}

// Manager owns partition placement and the append path.
//
// Single-writer: capacity checks and the subsequent write are not atomic,
// so two managers appending to the same registry can both pass the space
// check and overfill a partition. Run one writer per registry.
type Manager struct {
	opts     Options
	backend  backend.Backend
	registry *Registry
	schema   *Schema
	checker  DuplicateChecker
	logger   *zap.Logger
	limiter  *rate.Limiter

	// seen holds every record successfully persisted, in write order. It is
	// the corpus ingest-time duplicate checks run against.
	seen []types.FileRecord
}

// NewManager creates a manager over a backend and registry. A nil checker
// disables ingest-time duplicate detection.
func NewManager(b backend.Backend, reg *Registry, checker DuplicateChecker, opts Options, logger *zap.Logger) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid partition options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		opts:     opts,
		backend:  b,
		registry: reg,
		schema:   DefaultSchema(),
		checker:  checker,
		logger:   logger,
	}
	if opts.PaceInterval > 0 {
		m.limiter = rate.NewLimiter(rate.Every(opts.PaceInterval), 1)
	}
	return m, nil
}

// Registry exposes the manager's registry for status and persistence.
func (m *Manager) Registry() *Registry { return m.registry }

// LoadCorpus rebuilds the persisted-record corpus from the backend so
// duplicate checks cover rows written by earlier runs.
func (m *Manager) LoadCorpus(ctx context.Context) error {
	var corpus []types.FileRecord
	for _, c := range m.registry.Containers {
		for _, p := range c.Partitions {
			rows, err := m.readRows(ctx, c.Handle, p.Handle)
			if err != nil {
				return fmt.Errorf("failed to load corpus from partition %s: %w", p.Handle, err)
			}
			for _, row := range rows {
				corpus = append(corpus, m.schema.RowToRecord(row))
			}
		}
	}
	m.seen = corpus
	m.logger.Info("loaded persisted corpus", zap.Int("records", len(corpus)))
	return nil
}

// Append persists records, splitting them into chunks and spilling across
// partitions as ceilings are reached. With a checker attached, each record
// is first tested against everything already persisted and handled per the
// action: skip drops it, flag persists it with marked key fields, allow
// persists it untouched.
//
// A failed chunk aborts that chunk only; the batch continues. Partial
// failure is reported through the result counts, not an error.
func (m *Manager) Append(ctx context.Context, records []types.FileRecord, action types.DuplicateAction) (*types.AppendResult, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid duplicate action: %s", action)
	}

	result := &types.AppendResult{TotalRows: len(records)}
	touched := newTouchedSets()
	now := time.Now().UTC()

	for start := 0; start < len(records); start += m.opts.BatchSize {
		end := start + m.opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if m.limiter != nil && start > 0 {
			if err := m.limiter.Wait(ctx); err != nil {
				return result, fmt.Errorf("append canceled: %w", err)
			}
		}

		pending, skipped, flagged := m.applyAction(chunk, action)
		result.SkippedRows += skipped
		result.FlaggedRows += flagged
		if len(pending) == 0 {
			continue
		}

		rows := make([][]string, len(pending))
		for i := range pending {
			rows[i] = m.schema.RecordToRow(&pending[i], now)
		}

		written, err := m.writeChunk(ctx, rows, touched)
		result.AcceptedRows += written
		m.seen = append(m.seen, pending[:written]...)
		if err != nil {
			result.FailedRows += len(pending) - written
			m.logger.Warn("chunk write failed, continuing with next chunk",
				zap.Int("chunk_start", start),
				zap.Int("written", written),
				zap.Int("failed", len(pending)-written),
				zap.Error(err))
		}
	}

	result.ContainersUsed = touched.containers
	result.PartitionsUsed = touched.partitions

	if m.opts.RegistryPath != "" {
		if err := m.registry.Save(m.opts.RegistryPath); err != nil {
			return result, fmt.Errorf("append succeeded but registry save failed: %w", err)
		}
	}

	m.logger.Info("append complete",
		zap.Int("total", result.TotalRows),
		zap.Int("accepted", result.AcceptedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("flagged", result.FlaggedRows),
		zap.Int("failed", result.FailedRows))
	return result, nil
}

// applyAction filters a chunk through duplicate detection. Records accepted
// earlier in the same chunk count as part of the corpus, so an input batch
// containing its own duplicates is handled like any other.
func (m *Manager) applyAction(chunk []types.FileRecord, action types.DuplicateAction) (pending []types.FileRecord, skipped, flagged int) {
	if m.checker == nil || action == types.ActionAllow {
		return chunk, 0, 0
	}

	for i := range chunk {
		corpus := make([]types.FileRecord, 0, len(m.seen)+len(pending))
		corpus = append(corpus, m.seen...)
		corpus = append(corpus, pending...)

		match, err := m.checker.CheckDuplicate(&chunk[i], corpus)
		if err != nil {
			// Detection failure never loses data: treat as no match.
			m.logger.Warn("duplicate check failed, accepting record",
				zap.String("file_id", chunk[i].ID), zap.Error(err))
			match = nil
		}

		switch {
		case match == nil:
			pending = append(pending, chunk[i])
		case action == types.ActionSkip:
			skipped++
			m.logger.Debug("skipping duplicate",
				zap.String("file_id", chunk[i].ID),
				zap.String("matched_id", match.MatchedID),
				zap.String("match_type", string(match.Type)))
		case action == types.ActionFlag:
			pending = append(pending, FlagRecord(chunk[i], m.opts.KeyFields))
			flagged++
		}
	}
	return pending, skipped, flagged
}

// writeChunk places rows into writable partitions, spilling to the next
// partition when the current one fills. Returns how many rows landed.
// Registry counters move only after the backend write succeeds.
func (m *Manager) writeChunk(ctx context.Context, rows [][]string, touched *touchedSets) (int, error) {
	written := 0
	for written < len(rows) {
		c, p, err := m.CurrentWritable(ctx)
		if err != nil {
			return written, err
		}

		n := p.Remaining()
		if n > len(rows)-written {
			n = len(rows) - written
		}
		portion := rows[written : written+n]
		startRow := p.RowsUsed + 2 // +1 for the header, +1 for 1-based rows

		if err := m.writeWithRetry(ctx, c.Handle, p.Handle, portion, startRow); err != nil {
			return written, err
		}

		p.RowsUsed += n
		written += n
		touched.add(c, p)
	}
	return written, nil
}

func (m *Manager) writeWithRetry(ctx context.Context, container, partition string, rows [][]string, startRow int) error {
	var lastErr error
	for attempt := 1; attempt <= m.opts.WriteRetries; attempt++ {
		lastErr = m.backend.WriteRows(ctx, container, partition, rows, startRow)
		if lastErr == nil {
			return nil
		}
		m.logger.Warn("write attempt failed",
			zap.String("partition", partition),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < m.opts.WriteRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.opts.RetryDelay):
			}
		}
	}
	return &types.PartitionUnavailableError{
		Partition: partition,
		Attempts:  m.opts.WriteRetries,
		Err:       lastErr,
	}
}

// CurrentWritable returns the partition the next write lands in, creating
// partitions and containers as capacity runs out.
func (m *Manager) CurrentWritable(ctx context.Context) (*Container, *Partition, error) {
	if len(m.registry.Containers) == 0 {
		return m.newContainer(ctx)
	}

	c := m.registry.Containers[len(m.registry.Containers)-1]
	for _, p := range c.Partitions {
		if !p.Full() {
			return c, p, nil
		}
	}

	if len(c.Partitions) < m.opts.MaxPartitionsPerContainer {
		p, err := m.newPartition(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return c, p, nil
	}

	return m.newContainer(ctx)
}

func (m *Manager) newContainer(ctx context.Context) (*Container, *Partition, error) {
	name := fmt.Sprintf("%s-%d", m.opts.BaseName, len(m.registry.Containers)+1)
	handle, err := m.backend.CreateContainer(ctx, name)
	if err != nil {
		return nil, nil, &types.CapacityError{Err: fmt.Errorf("container %q: %w", name, err)}
	}

	c := &Container{Handle: handle, Name: name, CreatedAt: time.Now().UTC()}
	m.registry.Containers = append(m.registry.Containers, c)
	m.logger.Info("created container", zap.String("name", name), zap.String("handle", handle))

	p, err := m.newPartition(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

func (m *Manager) newPartition(ctx context.Context, c *Container) (*Partition, error) {
	name := fmt.Sprintf("part-%d", len(c.Partitions)+1)
	handle, err := m.backend.CreatePartition(ctx, c.Handle, name, m.schema.Columns())
	if err != nil {
		return nil, &types.CapacityError{Container: c.Name, Err: fmt.Errorf("partition %q: %w", name, err)}
	}

	p := &Partition{
		Handle:    handle,
		Name:      name,
		Ceiling:   m.opts.RowCeiling,
		CreatedAt: time.Now().UTC(),
	}
	c.Partitions = append(c.Partitions, p)
	m.logger.Info("created partition",
		zap.String("container", c.Name),
		zap.String("name", name),
		zap.Int("ceiling", p.Ceiling))
	return p, nil
}

// Locate finds where a record's row lives by scanning the lookup column
// across containers in creation order. First match wins.
func (m *Manager) Locate(ctx context.Context, fileID string) (*types.Location, error) {
	for _, c := range m.registry.Containers {
		for _, p := range c.Partitions {
			values, err := m.backend.ReadColumn(ctx, c.Handle, p.Handle, m.schema.LookupColumn())
			if err != nil {
				return nil, fmt.Errorf("failed to scan partition %s: %w", p.Handle, err)
			}
			for i, v := range values {
				if v == fileID {
					return &types.Location{
						ContainerName:   c.Name,
						ContainerHandle: c.Handle,
						PartitionHandle: p.Handle,
						RowIndex:        i + 2, // data rows start below the header
					}, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("record %s not found in any partition", fileID)
}

// Cleanup deletes header-only partitions, keeping the first partition of
// each container so the container invariant holds. Returns how many were
// removed.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	removed := 0
	for _, c := range m.registry.Containers {
		if len(c.Partitions) == 0 {
			continue
		}
		kept := c.Partitions[:1:1]
		for _, p := range c.Partitions[1:] {
			if p.RowsUsed > 0 {
				kept = append(kept, p)
				continue
			}
			if err := m.backend.DeletePartition(ctx, c.Handle, p.Handle); err != nil {
				return removed, fmt.Errorf("failed to delete empty partition %s: %w", p.Handle, err)
			}
			removed++
			m.logger.Info("removed empty partition",
				zap.String("container", c.Name),
				zap.String("partition", p.Name))
		}
		c.Partitions = kept
	}

	if removed > 0 && m.opts.RegistryPath != "" {
		if err := m.registry.Save(m.opts.RegistryPath); err != nil {
			return removed, fmt.Errorf("cleanup succeeded but registry save failed: %w", err)
		}
	}
	return removed, nil
}

// Status summarizes all containers and remaining capacity.
func (m *Manager) Status() *types.StatusReport {
	report := &types.StatusReport{
		Timestamp:      time.Now().UTC(),
		ContainerCount: len(m.registry.Containers),
		PartitionCount: m.registry.PartitionCount(),
		TotalRows:      m.registry.TotalRows(),
	}
	for _, c := range m.registry.Containers {
		var available int
		for _, p := range c.Partitions {
			available += p.Remaining()
		}
		report.AvailableCapacity += available
		report.Containers = append(report.Containers, types.ContainerStatus{
			Name:           c.Name,
			Handle:         c.Handle,
			PartitionCount: len(c.Partitions),
			TotalRows:      c.Rows(),
			AvailableSpace: available,
		})
	}
	return report
}

// readRows reassembles full rows from per-column reads.
func (m *Manager) readRows(ctx context.Context, container, partition string) ([][]string, error) {
	cols := m.schema.Columns()
	columns := make([][]string, len(cols))
	height := 0
	for i, col := range cols {
		values, err := m.backend.ReadColumn(ctx, container, partition, col)
		if err != nil {
			return nil, err
		}
		columns[i] = values
		if len(values) > height {
			height = len(values)
		}
	}

	rows := make([][]string, height)
	for r := 0; r < height; r++ {
		row := make([]string, len(cols))
		for cIdx := range cols {
			if r < len(columns[cIdx]) {
				row[cIdx] = columns[cIdx][r]
			}
		}
		rows[r] = row
	}
	return rows, nil
}

// touchedSets tracks which containers and partitions a batch wrote to,
// preserving first-touch order without duplicates.
type touchedSets struct {
	containers []string
	partitions []string
	seenC      map[string]bool
	seenP      map[string]bool
}

func newTouchedSets() *touchedSets {
	return &touchedSets{seenC: make(map[string]bool), seenP: make(map[string]bool)}
}

func (t *touchedSets) add(c *Container, p *Partition) {
	if !t.seenC[c.Handle] {
		t.seenC[c.Handle] = true
		t.containers = append(t.containers, c.Name)
	}
	if !t.seenP[p.Handle] {
		t.seenP[p.Handle] = true
		t.partitions = append(t.partitions, p.Name)
	}
}
