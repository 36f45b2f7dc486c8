package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/types"
)

var testSchema = []string{"file_id", "name", "size"}

// both implementations must satisfy the same contract.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	store, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": store,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ch, err := b.CreateContainer(ctx, "metadata-1")
			require.NoError(t, err)

			ph, err := b.CreatePartition(ctx, ch, "part-1", testSchema)
			require.NoError(t, err)

			// Header only.
			count, err := b.RowCount(ctx, ch, ph)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			rows := [][]string{
				{"f1", "a.pdf", "100"},
				{"f2", "b.pdf", "200"},
			}
			require.NoError(t, b.WriteRows(ctx, ch, ph, rows, 2))

			count, err = b.RowCount(ctx, ch, ph)
			require.NoError(t, err)
			assert.Equal(t, 3, count)

			ids, err := b.ReadColumn(ctx, ch, ph, "file_id")
			require.NoError(t, err)
			assert.Equal(t, []string{"f1", "f2"}, ids)

			sizes, err := b.ReadColumn(ctx, ch, ph, "size")
			require.NoError(t, err)
			assert.Equal(t, []string{"100", "200"}, sizes)
		})
	}
}

func TestBackendAppendsPreserveRowOrder(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ch, err := b.CreateContainer(ctx, "c")
			require.NoError(t, err)
			ph, err := b.CreatePartition(ctx, ch, "p", testSchema)
			require.NoError(t, err)

			require.NoError(t, b.WriteRows(ctx, ch, ph, [][]string{{"f1", "a", "1"}}, 2))
			require.NoError(t, b.WriteRows(ctx, ch, ph, [][]string{{"f2", "b", "2"}, {"f3", "c", "3"}}, 3))

			ids, err := b.ReadColumn(ctx, ch, ph, "file_id")
			require.NoError(t, err)
			assert.Equal(t, []string{"f1", "f2", "f3"}, ids)
		})
	}
}

func TestBackendRejectsHeaderOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ch, err := b.CreateContainer(ctx, "c")
			require.NoError(t, err)
			ph, err := b.CreatePartition(ctx, ch, "p", testSchema)
			require.NoError(t, err)

			err = b.WriteRows(ctx, ch, ph, [][]string{{"f1", "a", "1"}}, 1)
			require.Error(t, err)

			var writeErr *types.WriteError
			assert.True(t, errors.As(err, &writeErr))
		})
	}
}

func TestBackendUnknownColumn(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ch, err := b.CreateContainer(ctx, "c")
			require.NoError(t, err)
			ph, err := b.CreatePartition(ctx, ch, "p", testSchema)
			require.NoError(t, err)

			_, err = b.ReadColumn(ctx, ch, ph, "no_such_column")
			assert.Error(t, err)
		})
	}
}

func TestBackendDeletePartition(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ch, err := b.CreateContainer(ctx, "c")
			require.NoError(t, err)
			ph, err := b.CreatePartition(ctx, ch, "p", testSchema)
			require.NoError(t, err)

			require.NoError(t, b.DeletePartition(ctx, ch, ph))

			_, err = b.RowCount(ctx, ch, ph)
			assert.Error(t, err, "deleted partition must be gone")
		})
	}
}

func TestMemoryWriteHookInjectsFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ch, err := m.CreateContainer(ctx, "c")
	require.NoError(t, err)
	ph, err := m.CreatePartition(ctx, ch, "p", testSchema)
	require.NoError(t, err)

	m.WriteHook = func(container, partition string, rows int) error {
		return errors.New("quota exceeded")
	}
	err = m.WriteRows(ctx, ch, ph, [][]string{{"f1", "a", "1"}}, 2)
	require.Error(t, err)

	var writeErr *types.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, 1, writeErr.Rows)

	// Vetoed writes leave no partial rows behind.
	count, err := m.RowCount(ctx, ch, ph)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
