package partition

import (
	"fmt"
	"strconv"
	"time"

	"dupescan/internal/types"
)

// Schema maps file records onto positional rows. The column order is the
// header order; RowToRecord is the inverse for the columns that survive the
// string round trip.
type Schema struct {
	columns []string
}

// DefaultSchema returns the standard metadata column layout.
func DefaultSchema() *Schema {
	return &Schema{columns: []string{
		"file_id",
		"name",
		"mime_type",
		"category",
		"size_bytes",
		"size_mb",
		"content_hash",
		"owner_email",
		"owner_name",
		"sharing_status",
		"created_at",
		"modified_at",
		"scan_timestamp",
	}}
}

// Columns returns the header row.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.columns))
	copy(cols, s.columns)
	return cols
}

// LookupColumn is the column Locate scans for record identifiers.
func (s *Schema) LookupColumn() string { return "file_id" }

// RecordToRow renders one record as a positional row.
func (s *Schema) RecordToRow(rec *types.FileRecord, scannedAt time.Time) []string {
	row := make([]string, len(s.columns))
	for i, col := range s.columns {
		switch col {
		case "file_id":
			row[i] = rec.ID
		case "category":
			row[i] = string(rec.Category)
		case "size_bytes":
			row[i] = strconv.FormatInt(rec.Size, 10)
		case "size_mb":
			row[i] = fmt.Sprintf("%.2f", rec.SizeMB())
		case "created_at":
			row[i] = timestamp(rec.CreatedAt)
		case "modified_at":
			row[i] = timestamp(rec.ModifiedAt)
		case "scan_timestamp":
			row[i] = timestamp(scannedAt)
		default:
			row[i] = rec.Field(col)
		}
	}
	return row
}

// RowToRecord reconstructs a record from a positional row. Derived columns
// (size_mb, scan_timestamp) are not read back.
func (s *Schema) RowToRecord(row []string) types.FileRecord {
	var rec types.FileRecord
	for i, col := range s.columns {
		if i >= len(row) || row[i] == "" {
			continue
		}
		switch col {
		case "file_id":
			rec.ID = row[i]
		case "category":
			rec.Category = types.Category(row[i])
		case "size_bytes":
			if n, err := strconv.ParseInt(row[i], 10, 64); err == nil {
				rec.Size = n
			}
		case "size_mb", "scan_timestamp":
			// derived, skip
		case "created_at":
			if t, err := time.Parse(time.RFC3339, row[i]); err == nil {
				rec.CreatedAt = t
			}
		case "modified_at":
			if t, err := time.Parse(time.RFC3339, row[i]); err == nil {
				rec.ModifiedAt = t
			}
		default:
			rec.SetField(col, row[i])
		}
	}
	return rec
}

// duplicateMarker prefixes the key fields of a record persisted under the
// flag action, so flagged rows are visible in the data itself.
const duplicateMarker = "DUPLICATE_"

// FlagRecord returns a copy of rec with each non-empty key field prefixed
// with the duplicate marker.
func FlagRecord(rec types.FileRecord, keyFields []string) types.FileRecord {
	flagged := rec
	if rec.Extra != nil {
		flagged.Extra = make(map[string]string, len(rec.Extra))
		for k, v := range rec.Extra {
			flagged.Extra[k] = v
		}
	}
	for _, field := range keyFields {
		if v := flagged.Field(field); v != "" {
			flagged.SetField(field, duplicateMarker+v)
		}
	}
	return flagged
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
