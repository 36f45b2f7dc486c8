// Package backend defines the tabular storage collaborator the partition
// manager writes through, plus local implementations of it.
//
// The partition manager only decides which partition receives rows and when
// to create new ones; every actual read or write goes through this
// interface. Calls either succeed or return a typed failure - retries and
// timeouts are the caller's business.
package backend

import "context"

// Backend is the tabular storage collaborator. A container is one
// addressable collection (a spreadsheet-equivalent); a partition is one
// bounded tab inside it. Row 1 of every partition is the header; data rows
// start at row 2.
type Backend interface {
	// CreateContainer creates a named container and returns its handle.
	CreateContainer(ctx context.Context, name string) (string, error)

	// CreatePartition creates a partition with the given column schema
	// inside a container, writes the header row, and returns the partition
	// handle.
	CreatePartition(ctx context.Context, container, name string, schema []string) (string, error)

	// WriteRows writes rows starting at the 1-based startRow. Rows are
	// positional string cells matching the partition schema.
	WriteRows(ctx context.Context, container, partition string, rows [][]string, startRow int) error

	// RowCount returns the number of occupied rows including the header.
	RowCount(ctx context.Context, container, partition string) (int, error)

	// ReadColumn returns the values of a named column for all data rows, in
	// row order.
	ReadColumn(ctx context.Context, container, partition, column string) ([]string, error)

	// DeletePartition removes a partition and its rows.
	DeletePartition(ctx context.Context, container, partition string) error
}
