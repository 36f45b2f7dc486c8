package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dupescan/internal/types"
)

// Memory is an in-process Backend for tests and dry runs. Handles are
// UUIDs so callers cannot accidentally depend on name == handle.
type Memory struct {
	mu         sync.Mutex
	containers map[string]*memContainer

	// WriteHook, when set, runs before each WriteRows and can veto it.
	// Used by tests to inject write failures.
	WriteHook func(container, partition string, rows int) error
}

type memContainer struct {
	name       string
	partitions map[string]*memPartition
}

type memPartition struct {
	name   string
	schema []string
	// rows[0] is the header row.
	rows [][]string
}

// NewMemory creates an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{containers: make(map[string]*memContainer)}
}

func (m *Memory) CreateContainer(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handle := uuid.NewString()
	m.containers[handle] = &memContainer{
		name:       name,
		partitions: make(map[string]*memPartition),
	}
	return handle, nil
}

func (m *Memory) CreatePartition(_ context.Context, container, name string, schema []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[container]
	if !ok {
		return "", fmt.Errorf("unknown container %s", container)
	}

	handle := uuid.NewString()
	header := make([]string, len(schema))
	copy(header, schema)
	c.partitions[handle] = &memPartition{
		name:   name,
		schema: header,
		rows:   [][]string{header},
	}
	return handle, nil
}

func (m *Memory) WriteRows(_ context.Context, container, partition string, rows [][]string, startRow int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.partition(container, partition)
	if err != nil {
		return &types.WriteError{Partition: partition, Rows: len(rows), Err: err}
	}
	if startRow < 2 {
		return &types.WriteError{Partition: partition, Rows: len(rows),
			Err: fmt.Errorf("start row %d would overwrite the header", startRow)}
	}

	if m.WriteHook != nil {
		if err := m.WriteHook(container, partition, len(rows)); err != nil {
			return &types.WriteError{Partition: partition, Rows: len(rows), Err: err}
		}
	}

	// Grow to startRow-1 rows, then append. Sparse gaps stay empty rows.
	for len(p.rows) < startRow-1 {
		p.rows = append(p.rows, make([]string, len(p.schema)))
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		copy(cells, row)
		idx := startRow - 1 + i
		if idx < len(p.rows) {
			p.rows[idx] = cells
		} else {
			p.rows = append(p.rows, cells)
		}
	}
	return nil
}

func (m *Memory) RowCount(_ context.Context, container, partition string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.partition(container, partition)
	if err != nil {
		return 0, err
	}
	return len(p.rows), nil
}

func (m *Memory) ReadColumn(_ context.Context, container, partition, column string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.partition(container, partition)
	if err != nil {
		return nil, err
	}

	col := -1
	for i, name := range p.schema {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not in partition schema", column)
	}

	values := make([]string, 0, len(p.rows)-1)
	for _, row := range p.rows[1:] {
		if col < len(row) {
			values = append(values, row[col])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

func (m *Memory) DeletePartition(_ context.Context, container, partition string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[container]
	if !ok {
		return fmt.Errorf("unknown container %s", container)
	}
	if _, ok := c.partitions[partition]; !ok {
		return fmt.Errorf("unknown partition %s", partition)
	}
	delete(c.partitions, partition)
	return nil
}

func (m *Memory) partition(container, partition string) (*memPartition, error) {
	c, ok := m.containers[container]
	if !ok {
		return nil, fmt.Errorf("unknown container %s", container)
	}
	p, ok := c.partitions[partition]
	if !ok {
		return nil, fmt.Errorf("unknown partition %s", partition)
	}
	return p, nil
}
