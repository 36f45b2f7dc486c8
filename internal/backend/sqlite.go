package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"dupescan/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS containers (
    handle TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS partitions (
    handle TEXT PRIMARY KEY,
    container TEXT NOT NULL,
    name TEXT NOT NULL,
    schema TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (container) REFERENCES containers(handle) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cells (
    partition TEXT NOT NULL,
    row_idx INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (partition, row_idx),
    FOREIGN KEY (partition) REFERENCES partitions(handle) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_partitions_container ON partitions(container);
`

// SQLite is a file-backed Backend. Rows are stored as JSON cell arrays
// keyed by (partition, row index), which keeps the schema flexible without
// per-partition DDL.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a database at path. Use ":memory:" for an
// ephemeral database.
func NewSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateContainer(ctx context.Context, name string) (string, error) {
	handle := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO containers (handle, name) VALUES (?, ?)`, handle, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %q: %w", name, err)
	}
	return handle, nil
}

func (s *SQLite) CreatePartition(ctx context.Context, container, name string, schema []string) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists string
	if err := tx.QueryRowContext(ctx,
		`SELECT handle FROM containers WHERE handle = ?`, container).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("unknown container %s", container)
		}
		return "", fmt.Errorf("failed to look up container: %w", err)
	}

	handle := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO partitions (handle, container, name, schema) VALUES (?, ?, ?, ?)`,
		handle, container, name, string(schemaJSON)); err != nil {
		return "", fmt.Errorf("failed to create partition %q: %w", name, err)
	}

	// Header row occupies row 1.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cells (partition, row_idx, data) VALUES (?, 1, ?)`,
		handle, string(schemaJSON)); err != nil {
		return "", fmt.Errorf("failed to write header row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit partition creation: %w", err)
	}
	return handle, nil
}

func (s *SQLite) WriteRows(ctx context.Context, container, partition string, rows [][]string, startRow int) error {
	if startRow < 2 {
		return &types.WriteError{Partition: partition, Rows: len(rows),
			Err: fmt.Errorf("start row %d would overwrite the header", startRow)}
	}
	if err := s.checkPartition(ctx, container, partition); err != nil {
		return &types.WriteError{Partition: partition, Rows: len(rows), Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.WriteError{Partition: partition, Rows: len(rows),
			Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return &types.WriteError{Partition: partition, Rows: len(rows),
				Err: fmt.Errorf("failed to marshal row: %w", err)}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO cells (partition, row_idx, data) VALUES (?, ?, ?)`,
			partition, startRow+i, string(data)); err != nil {
			return &types.WriteError{Partition: partition, Rows: len(rows),
				Err: fmt.Errorf("failed to write row %d: %w", startRow+i, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.WriteError{Partition: partition, Rows: len(rows),
			Err: fmt.Errorf("failed to commit write: %w", err)}
	}
	return nil
}

func (s *SQLite) RowCount(ctx context.Context, container, partition string) (int, error) {
	if err := s.checkPartition(ctx, container, partition); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cells WHERE partition = ?`, partition).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

func (s *SQLite) ReadColumn(ctx context.Context, container, partition, column string) ([]string, error) {
	if err := s.checkPartition(ctx, container, partition); err != nil {
		return nil, err
	}

	var schemaJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT schema FROM partitions WHERE handle = ?`, partition).Scan(&schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition schema: %w", err)
	}
	var schema []string
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	col := -1
	for i, name := range schema {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not in partition schema", column)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM cells WHERE partition = ? AND row_idx > 1 ORDER BY row_idx ASC`,
		partition)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(data), &cells); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		if col < len(cells) {
			values = append(values, cells[col])
		} else {
			values = append(values, "")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return values, nil
}

func (s *SQLite) DeletePartition(ctx context.Context, container, partition string) error {
	if err := s.checkPartition(ctx, container, partition); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM partitions WHERE handle = ?`, partition); err != nil {
		return fmt.Errorf("failed to delete partition: %w", err)
	}
	return nil
}

func (s *SQLite) checkPartition(ctx context.Context, container, partition string) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT container FROM partitions WHERE handle = ?`, partition).Scan(&owner)
	if err == sql.ErrNoRows {
		return fmt.Errorf("unknown partition %s", partition)
	}
	if err != nil {
		return fmt.Errorf("failed to look up partition: %w", err)
	}
	if owner != container {
		return fmt.Errorf("partition %s does not belong to container %s", partition, container)
	}
	return nil
}
