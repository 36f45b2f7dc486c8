package scan

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupescan/internal/types"
)

func TestCategoryForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want types.Category
	}{
		{"image/jpeg", types.CategoryImage},
		{"image/png", types.CategoryImage},
		{"video/mp4", types.CategoryVideo},
		{"audio/mpeg", types.CategoryAudio},
		{"application/pdf", types.CategoryDocument},
		{"application/vnd.google-apps.document", types.CategoryDocument},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", types.CategoryDocument},
		{"text/plain", types.CategoryDocument},
		{"text/x-python", types.CategoryCode},
		{"text/javascript", types.CategoryCode},
		{"application/json", types.CategoryCode},
		{"application/octet-stream", types.CategoryOther},
		{"", types.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryForMIME(tt.mime))
		})
	}
}

func TestBestHashPrecedence(t *testing.T) {
	rec := types.FileRecord{
		Name: "a.bin", Size: 10, MimeType: "application/octet-stream",
		Hashes: map[string]string{"md5": "m", "sha1": "s1", "sha256": "s256"},
	}
	assert.Equal(t, "s256", BestHash(&rec))

	delete(rec.Hashes, "sha256")
	assert.Equal(t, "s1", BestHash(&rec))

	delete(rec.Hashes, "sha1")
	assert.Equal(t, "m", BestHash(&rec))
}

func TestBestHashMetadataFallback(t *testing.T) {
	a := types.FileRecord{Name: "a.bin", Size: 10, MimeType: "application/octet-stream"}
	b := types.FileRecord{Name: "a.bin", Size: 10, MimeType: "application/octet-stream"}
	c := types.FileRecord{Name: "c.bin", Size: 10, MimeType: "application/octet-stream"}

	assert.Equal(t, BestHash(&a), BestHash(&b), "identical metadata yields identical fallback")
	assert.NotEqual(t, BestHash(&a), BestHash(&c))
	assert.Len(t, BestHash(&a), 32)
}

func TestSharingStatus(t *testing.T) {
	assert.Equal(t, "shared", SharingStatus(true, 2))
	assert.Equal(t, "private", SharingStatus(true, 1), "owner-only permissions are private")
	assert.Equal(t, "private", SharingStatus(false, 5))
}

func TestEnhanceFillsGapsOnly(t *testing.T) {
	rec := types.FileRecord{
		ID:       "f1",
		Name:     "photo.jpg",
		MimeType: "image/jpeg",
		Size:     100,
		Hashes:   map[string]string{"sha256": "abc"},
	}
	Enhance(&rec)
	assert.Equal(t, types.CategoryImage, rec.Category)
	assert.Equal(t, "abc", rec.ContentHash)
	assert.Equal(t, "private", rec.SharingStatus)

	// A record that already carries values keeps them.
	rec2 := types.FileRecord{
		ID: "f2", MimeType: "image/jpeg",
		Category: types.CategoryDocument, ContentHash: "keep", SharingStatus: "shared",
	}
	Enhance(&rec2)
	assert.Equal(t, types.CategoryDocument, rec2.Category)
	assert.Equal(t, "keep", rec2.ContentHash)
	assert.Equal(t, "shared", rec2.SharingStatus)
}

func TestStaticScannerPaginates(t *testing.T) {
	ctx := context.Background()
	records := []types.FileRecord{
		{ID: "f1", Name: "a.pdf", MimeType: "application/pdf", Size: 1},
		{ID: "f2", Name: "b.pdf", MimeType: "application/pdf", Size: 2},
		{ID: "f3", Name: "c.jpg", MimeType: "image/jpeg", Size: 3},
	}
	s := NewStatic(records)

	page, err := s.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	require.NotEmpty(t, page.NextToken)
	assert.Equal(t, types.CategoryDocument, page.Records[0].Category, "pages come back enhanced")

	page, err = s.List(ctx, page.NextToken, 2)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Empty(t, page.NextToken)
	assert.Equal(t, "f3", page.Records[0].ID)
}

func TestStaticScannerBadToken(t *testing.T) {
	s := NewStatic(nil)
	_, err := s.List(context.Background(), "not-a-number", 10)
	require.Error(t, err)
	var scanErr *types.ScanError
	assert.ErrorAs(t, err, &scanErr)
}

func TestScanAllHonorsMaxCount(t *testing.T) {
	ctx := context.Background()
	records := make([]types.FileRecord, 10)
	for i := range records {
		records[i] = types.FileRecord{ID: string(rune('a' + i)), Size: 1}
	}
	s := NewStatic(records)

	all, err := All(ctx, s, 3, 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	capped, err := All(ctx, s, 3, 7)
	require.NoError(t, err)
	assert.Len(t, capped, 7)
}

func TestObjectToRecordMapping(t *testing.T) {
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	attrs := &storage.ObjectAttrs{
		Name:        "scans/2025/photo.jpg",
		Size:        4096,
		ContentType: "image/jpeg",
		Created:     created,
		Updated:     created.Add(time.Hour),
		MD5:         []byte{0xde, 0xad, 0xbe, 0xef},
		Owner:       "owner@example.com",
		Metadata: map[string]string{
			"sha256":     "cafe01",
			"phash":      "ffff0000",
			"owner_name": "Owner",
			"shared":     "true",
			"project":    "archive",
		},
	}

	rec := objectToRecord(attrs, "my-bucket")
	assert.Equal(t, "scans/2025/photo.jpg", rec.ID)
	assert.Equal(t, "photo.jpg", rec.Name)
	assert.Equal(t, int64(4096), rec.Size)
	assert.Equal(t, "deadbeef", rec.Hashes["md5"])
	assert.Equal(t, "cafe01", rec.Hashes["sha256"])
	assert.Equal(t, "ffff0000", rec.ImageHashes["phash"])
	assert.Equal(t, "owner@example.com", rec.OwnerEmail)
	assert.Equal(t, "Owner", rec.OwnerName)
	assert.True(t, rec.Shared)
	assert.Equal(t, "gs://my-bucket/scans/2025/photo.jpg", rec.Extra["source_url"])
	assert.Equal(t, "archive", rec.Extra["project"])
	assert.True(t, rec.CreatedAt.Equal(created))

	Enhance(&rec)
	assert.Equal(t, types.CategoryImage, rec.Category)
	assert.Equal(t, "cafe01", rec.ContentHash, "sha256 from metadata wins")
}
