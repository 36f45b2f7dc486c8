package partition

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/backend"
	"dupescan/internal/engine"
	"dupescan/internal/strategy"
	"dupescan/internal/types"
)

func testOptions(mutate func(*Options)) Options {
	opts := DefaultOptions()
	opts.RowCeiling = 5
	opts.BatchSize = 10
	opts.WriteRetries = 1
	opts.RetryDelay = time.Millisecond
	opts.PaceInterval = 0
	if mutate != nil {
		mutate(&opts)
	}
	return opts
}

func newTestManager(t *testing.T, b backend.Backend, checker DuplicateChecker, mutate func(*Options)) *Manager {
	t.Helper()
	m, err := NewManager(b, NewRegistry(), checker, testOptions(mutate), nil)
	require.NoError(t, err)
	return m
}

func rec(id string) types.FileRecord {
	return types.FileRecord{ID: id, Name: id + ".bin", Size: 100, Category: types.CategoryOther}
}

func recs(ids ...string) []types.FileRecord {
	out := make([]types.FileRecord, len(ids))
	for i, id := range ids {
		out[i] = rec(id)
	}
	return out
}

// idChecker flags a candidate as duplicate when its ID is already in the
// corpus, marker prefix ignored.
type idChecker struct{}

func (idChecker) CheckDuplicate(c *types.FileRecord, corpus []types.FileRecord) (*types.MatchResult, error) {
	for i := range corpus {
		if strings.TrimPrefix(corpus[i].ID, "DUPLICATE_") == c.ID {
			return &types.MatchResult{
				Type: types.MatchExact, Confidence: types.ConfidenceHigh, Score: 100,
				MatchedID: corpus[i].ID, MatchedIndex: i,
			}, nil
		}
	}
	return nil, nil
}

func TestAppendFillsThenSpills(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, nil) // ceiling 5

	res, err := m.Append(ctx, recs("f1", "f2", "f3", "f4", "f5"), types.ActionAllow)
	require.NoError(t, err)
	assert.Equal(t, 5, res.AcceptedRows)

	res, err = m.Append(ctx, recs("f6", "f7", "f8"), types.ActionAllow)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AcceptedRows)

	require.Len(t, m.registry.Containers, 1)
	parts := m.registry.Containers[0].Partitions
	require.Len(t, parts, 2, "overflow creates exactly one new partition")
	assert.Equal(t, 5, parts[0].RowsUsed)
	assert.Equal(t, 3, parts[1].RowsUsed)
}

func TestAppendChunkSpansTwoPartitions(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, func(o *Options) { o.RowCeiling = 3 })

	res, err := m.Append(ctx, recs("f1", "f2", "f3", "f4", "f5"), types.ActionAllow)
	require.NoError(t, err)
	assert.Equal(t, 5, res.AcceptedRows)

	parts := m.registry.Containers[0].Partitions
	require.Len(t, parts, 2)
	assert.Equal(t, 3, parts[0].RowsUsed)
	assert.Equal(t, 2, parts[1].RowsUsed)
	assert.Len(t, res.PartitionsUsed, 2, "one chunk may land in two partitions")
}

func TestAppendIdempotentWithSkip(t *testing.T) {
	ctx := context.Background()

	eng, err := engine.New(strategy.DefaultConfig(), nil)
	require.NoError(t, err)

	m := newTestManager(t, backend.NewMemory(), eng, nil)

	batch := []types.FileRecord{
		{ID: "f1", Name: "annual-budget.xlsx", Size: 100, Category: types.CategoryOther},
		{ID: "f2", Name: "holiday-photo.jpg", Size: 250, Category: types.CategoryOther},
		{ID: "f3", Name: "server-notes.txt", Size: 400, Category: types.CategoryOther},
	}

	res, err := m.Append(ctx, batch, types.ActionSkip)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AcceptedRows)

	// Same batch again: every record matches its persisted twin.
	res, err = m.Append(ctx, batch, types.ActionSkip)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AcceptedRows)
	assert.Equal(t, 3, res.SkippedRows)
	assert.Equal(t, 3, m.registry.TotalRows(), "re-ingest adds zero rows")
}

func TestAppendFlagPersistsMarkedRow(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	m := newTestManager(t, b, idChecker{}, nil)

	res, err := m.Append(ctx, recs("f1", "f1"), types.ActionFlag)
	require.NoError(t, err)
	assert.Equal(t, 2, res.AcceptedRows, "flag persists the duplicate")
	assert.Equal(t, 1, res.FlaggedRows)

	c := m.registry.Containers[0]
	ids, err := b.ReadColumn(ctx, c.Handle, c.Partitions[0].Handle, "file_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "DUPLICATE_f1"}, ids)
}

func TestAppendFailedWriteLeavesCountersUntouched(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	b.WriteHook = func(string, string, int) error { return errors.New("quota exceeded") }

	m := newTestManager(t, b, nil, func(o *Options) { o.WriteRetries = 2 })

	res, err := m.Append(ctx, recs("f1", "f2"), types.ActionAllow)
	require.NoError(t, err, "a failed chunk is reported via counts, not an error")
	assert.Equal(t, 0, res.AcceptedRows)
	assert.Equal(t, 2, res.FailedRows)
	assert.Equal(t, 0, m.registry.TotalRows(), "counters move only on successful writes")
}

func TestAppendContinuesAfterFailedChunk(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	calls := 0
	b.WriteHook = func(string, string, int) error {
		calls++
		if calls == 1 {
			return errors.New("transient backend error")
		}
		return nil
	}

	m := newTestManager(t, b, nil, func(o *Options) { o.BatchSize = 1 })

	res, err := m.Append(ctx, recs("f1", "f2"), types.ActionAllow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedRows)
	assert.Equal(t, 1, res.AcceptedRows)
	assert.Equal(t, 1, m.registry.TotalRows())
}

func TestPartitionCapOverflowsToNewContainer(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, func(o *Options) {
		o.RowCeiling = 1
		o.MaxPartitionsPerContainer = 2
	})

	res, err := m.Append(ctx, recs("f1", "f2", "f3"), types.ActionAllow)
	require.NoError(t, err)
	assert.Equal(t, 3, res.AcceptedRows)

	require.Len(t, m.registry.Containers, 2)
	assert.Len(t, m.registry.Containers[0].Partitions, 2)
	assert.Len(t, m.registry.Containers[1].Partitions, 1)
	assert.Equal(t, "file-metadata-2", m.registry.Containers[1].Name)
}

func TestCleanupKeepsFirstPartition(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, func(o *Options) { o.RowCeiling = 2 })

	// Fresh container: the single empty partition survives cleanup.
	_, _, err := m.CurrentWritable(ctx)
	require.NoError(t, err)
	removed, err := m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	// Fill partition 1 and provision an empty partition 2.
	_, err = m.Append(ctx, recs("f1", "f2"), types.ActionAllow)
	require.NoError(t, err)
	_, _, err = m.CurrentWritable(ctx)
	require.NoError(t, err)
	require.Len(t, m.registry.Containers[0].Partitions, 2)

	removed, err = m.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, m.registry.Containers[0].Partitions, 1)
}

func TestLocateFindsRow(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, func(o *Options) { o.RowCeiling = 2 })

	_, err := m.Append(ctx, recs("f1", "f2", "f3"), types.ActionAllow)
	require.NoError(t, err)

	loc, err := m.Locate(ctx, "f2")
	require.NoError(t, err)
	assert.Equal(t, 3, loc.RowIndex, "second data row sits below the header")
	assert.Equal(t, m.registry.Containers[0].Partitions[0].Handle, loc.PartitionHandle)

	loc, err = m.Locate(ctx, "f3")
	require.NoError(t, err)
	assert.Equal(t, 2, loc.RowIndex)
	assert.Equal(t, m.registry.Containers[0].Partitions[1].Handle, loc.PartitionHandle)

	_, err = m.Locate(ctx, "missing")
	assert.Error(t, err)
}

func TestLoadCorpusCoversEarlierRuns(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()

	first := newTestManager(t, b, idChecker{}, nil)
	_, err := first.Append(ctx, recs("f1", "f2"), types.ActionSkip)
	require.NoError(t, err)

	// Second run over the same backend and registry state.
	second, err := NewManager(b, first.Registry(), idChecker{}, testOptions(nil), nil)
	require.NoError(t, err)
	require.NoError(t, second.LoadCorpus(ctx))

	res, err := second.Append(ctx, recs("f1", "f2"), types.ActionSkip)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AcceptedRows)
	assert.Equal(t, 2, res.SkippedRows)
}

func TestStatusReportAggregates(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, backend.NewMemory(), nil, func(o *Options) { o.RowCeiling = 4 })

	_, err := m.Append(ctx, recs("f1", "f2", "f3", "f4", "f5"), types.ActionAllow)
	require.NoError(t, err)

	report := m.Status()
	assert.Equal(t, 1, report.ContainerCount)
	assert.Equal(t, 2, report.PartitionCount)
	assert.Equal(t, 5, report.TotalRows)
	assert.Equal(t, 3, report.AvailableCapacity)
	require.Len(t, report.Containers, 1)
	assert.Equal(t, 5, report.Containers[0].TotalRows)
}

func TestAppendPersistsRegistry(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/registry.json"

	m, err := NewManager(backend.NewMemory(), NewRegistry(), nil,
		testOptions(func(o *Options) { o.RegistryPath = path }), nil)
	require.NoError(t, err)

	_, err = m.Append(ctx, recs("f1"), types.ActionAllow)
	require.NoError(t, err)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalRows())
}
