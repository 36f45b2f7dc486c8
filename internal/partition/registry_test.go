package partition

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/backend"
)

func TestRegistryJSONRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	reg := &Registry{
		Containers: []*Container{
			{
				Handle:    "c1",
				Name:      "file-metadata-1",
				CreatedAt: created,
				Partitions: []*Partition{
					{Handle: "p1", Name: "part-1", RowsUsed: 42, Ceiling: 4500, CreatedAt: created},
					{Handle: "p2", Name: "part-2", RowsUsed: 0, Ceiling: 4500, CreatedAt: created},
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	require.Len(t, loaded.Containers, 1)
	c := loaded.Containers[0]
	assert.Equal(t, "file-metadata-1", c.Name)
	assert.True(t, c.CreatedAt.Equal(created), "timestamps survive the round trip")
	require.Len(t, c.Partitions, 2)
	assert.Equal(t, 42, c.Partitions[0].RowsUsed)
	assert.Equal(t, 4500, c.Partitions[0].Ceiling)
	assert.Equal(t, 42, loaded.TotalRows())
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestLoadRegistryMissingFileIsEmpty(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, reg.Containers)
}

func TestRegistryReconcileFixesDrift(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()

	ch, err := b.CreateContainer(ctx, "c")
	require.NoError(t, err)
	ph, err := b.CreatePartition(ctx, ch, "p", DefaultSchema().Columns())
	require.NoError(t, err)
	require.NoError(t, b.WriteRows(ctx, ch, ph, [][]string{
		make([]string, 13), make([]string, 13), make([]string, 13),
	}, 2))

	// Counter drifted low, as after a crash between write and save.
	reg := &Registry{Containers: []*Container{{
		Handle:     ch,
		Name:       "c",
		Partitions: []*Partition{{Handle: ph, Name: "p", RowsUsed: 1, Ceiling: 10}},
	}}}

	require.NoError(t, reg.Reconcile(ctx, b))
	assert.Equal(t, 3, reg.Containers[0].Partitions[0].RowsUsed)
}

func TestPartitionCapacityHelpers(t *testing.T) {
	p := &Partition{RowsUsed: 9, Ceiling: 10}
	assert.Equal(t, 1, p.Remaining())
	assert.False(t, p.Full())
	assert.InDelta(t, 0.9, p.FillLevel(), 0.001)

	p.RowsUsed = 10
	assert.True(t, p.Full())
	assert.Equal(t, 0, p.Remaining())

	p.RowsUsed = 11 // overfill from a reconcile never goes negative
	assert.Equal(t, 0, p.Remaining())
}
