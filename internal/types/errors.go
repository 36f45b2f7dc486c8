package types

import "fmt"

// ScanError means the source repository collaborator could not be read.
// Fatal: it aborts the whole run.
type ScanError struct {
	Source string
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed for source %q: %v", e.Source, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// StrategyError means one match strategy failed for one category. Recovered:
// the strategy is skipped and the run continues.
type StrategyError struct {
	Strategy string
	Category Category
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed for category %s: %v", e.Strategy, e.Category, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// WriteError means the tabular backend rejected a write. It aborts the
// current chunk only; the batch continues.
type WriteError struct {
	Partition string
	Rows      int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write of %d rows to partition %s failed: %v", e.Rows, e.Partition, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// PartitionUnavailableError means a write kept failing past the retry budget.
type PartitionUnavailableError struct {
	Partition string
	Attempts  int
	Err       error
}

func (e *PartitionUnavailableError) Error() string {
	return fmt.Sprintf("partition %s unavailable after %d attempts: %v", e.Partition, e.Attempts, e.Err)
}

func (e *PartitionUnavailableError) Unwrap() error { return e.Err }

// CapacityError means no partition could be created to place a record.
// Fatal for that record, non-fatal for the batch.
type CapacityError struct {
	Container string
	Err       error
}

func (e *CapacityError) Error() string {
	if e.Container == "" {
		return fmt.Sprintf("no partition could be created: %v", e.Err)
	}
	return fmt.Sprintf("no partition could be created in container %s: %v", e.Container, e.Err)
}

func (e *CapacityError) Unwrap() error { return e.Err }
