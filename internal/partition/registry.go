package partition

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dupescan/internal/backend"
)

// Partition tracks one bounded tab of a container. RowsUsed counts data
// rows only; the header row is not counted against the ceiling.
type Partition struct {
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	RowsUsed  int       `json:"rows_used"`
	Ceiling   int       `json:"ceiling"`
	CreatedAt time.Time `json:"created_at"`
}

// Remaining returns how many data rows still fit.
func (p *Partition) Remaining() int {
	r := p.Ceiling - p.RowsUsed
	if r < 0 {
		return 0
	}
	return r
}

// Full reports whether the partition has reached its row ceiling.
func (p *Partition) Full() bool { return p.RowsUsed >= p.Ceiling }

// FillLevel returns usage as a fraction of the ceiling.
func (p *Partition) FillLevel() float64 {
	if p.Ceiling == 0 {
		return 1
	}
	return float64(p.RowsUsed) / float64(p.Ceiling)
}

// Container groups a bounded number of partitions. A container created by
// the manager always holds at least one partition.
type Container struct {
	Handle     string       `json:"handle"`
	Name       string       `json:"name"`
	Partitions []*Partition `json:"partitions"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Rows returns the container's total data rows.
func (c *Container) Rows() int {
	var total int
	for _, p := range c.Partitions {
		total += p.RowsUsed
	}
	return total
}

// Registry is the persistent index of all containers and partitions the
// manager has created. Row counters are optimistic: the manager increments
// them only after a successful backend write, so a retried failure never
// double-counts. Reconcile corrects any drift from the backend's actual
// row counts.
type Registry struct {
	Containers  []*Container `json:"containers"`
	LastUpdated time.Time    `json:"last_updated"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// TotalRows returns data rows across all containers.
func (r *Registry) TotalRows() int {
	var total int
	for _, c := range r.Containers {
		total += c.Rows()
	}
	return total
}

// PartitionCount returns the number of partitions across all containers.
func (r *Registry) PartitionCount() int {
	var total int
	for _, c := range r.Containers {
		total += len(c.Partitions)
	}
	return total
}

// Find returns the container and partition for a partition handle.
func (r *Registry) Find(partitionHandle string) (*Container, *Partition, bool) {
	for _, c := range r.Containers {
		for _, p := range c.Partitions {
			if p.Handle == partitionHandle {
				return c, p, true
			}
		}
	}
	return nil, nil, false
}

// Save writes the registry as JSON, atomically via a temp file rename.
// Timestamps serialize as RFC 3339.
func (r *Registry) Save(path string) error {
	r.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// LoadRegistry reads a registry saved by Save. A missing file yields an
// empty registry, not an error.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return &r, nil
}

// Reconcile replaces every partition's row counter with the backend's
// actual count. Counters can drift when a process dies between a backend
// write and a registry save.
func (r *Registry) Reconcile(ctx context.Context, b backend.Backend) error {
	for _, c := range r.Containers {
		for _, p := range c.Partitions {
			count, err := b.RowCount(ctx, c.Handle, p.Handle)
			if err != nil {
				return fmt.Errorf("failed to reconcile partition %s: %w", p.Handle, err)
			}
			// RowCount includes the header row.
			p.RowsUsed = count - 1
			if p.RowsUsed < 0 {
				p.RowsUsed = 0
			}
		}
	}
	r.LastUpdated = time.Now().UTC()
	return nil
}
