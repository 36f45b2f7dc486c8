package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/types"
)

func TestSchemaRowRoundTrip(t *testing.T) {
	s := DefaultSchema()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := types.FileRecord{
		ID:            "f100",
		Name:          "Report.pdf",
		MimeType:      "application/pdf",
		Category:      types.CategoryDocument,
		Size:          2 * 1024 * 1024,
		ContentHash:   "abc123",
		OwnerEmail:    "owner@example.com",
		OwnerName:     "Owner",
		SharingStatus: "private",
		CreatedAt:     created,
		ModifiedAt:    created.Add(24 * time.Hour),
	}

	row := s.RecordToRow(&rec, time.Now())
	require.Len(t, row, len(s.Columns()))

	got := s.RowToRecord(row)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Category, got.Category)
	assert.Equal(t, rec.Size, got.Size)
	assert.Equal(t, rec.ContentHash, got.ContentHash)
	assert.Equal(t, rec.SharingStatus, got.SharingStatus)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestSchemaTimestampsAreISO8601(t *testing.T) {
	s := DefaultSchema()
	rec := types.FileRecord{
		ID:        "f1",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	row := s.RecordToRow(&rec, time.Time{})

	cols := s.Columns()
	for i, col := range cols {
		if col == "created_at" {
			assert.Equal(t, "2025-01-02T03:04:05Z", row[i])
		}
		if col == "scan_timestamp" {
			assert.Empty(t, row[i], "zero scan time renders empty")
		}
	}
}

func TestFlagRecordMarksKeyFields(t *testing.T) {
	rec := types.FileRecord{
		ID:    "f1",
		Name:  "a.pdf",
		Extra: map[string]string{"source_url": "https://example.com/a"},
	}

	flagged := FlagRecord(rec, []string{"id", "source_url"})

	assert.Equal(t, "DUPLICATE_f1", flagged.ID)
	assert.Equal(t, "DUPLICATE_https://example.com/a", flagged.Extra["source_url"])
	assert.Equal(t, "a.pdf", flagged.Name, "non-key fields untouched")

	// The input record is never mutated.
	assert.Equal(t, "f1", rec.ID)
	assert.Equal(t, "https://example.com/a", rec.Extra["source_url"])
}

func TestFlagRecordSkipsEmptyFields(t *testing.T) {
	rec := types.FileRecord{ID: "f1"}
	flagged := FlagRecord(rec, []string{"id", "source_url"})
	assert.Equal(t, "DUPLICATE_f1", flagged.ID)
	_, present := flagged.Extra["source_url"]
	assert.False(t, present, "absent fields stay absent")
}
