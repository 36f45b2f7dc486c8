package scan

import (
	"crypto/md5"
	"fmt"
	"strings"

	"dupescan/internal/types"
)

// mimeCategories maps MIME substrings to categories. Checked in order so
// the specific code types win over the generic text/ prefix.
var mimeCategories = []struct {
	category types.Category
	patterns []string
}{
	{types.CategoryImage, []string{"image/"}},
	{types.CategoryVideo, []string{"video/"}},
	{types.CategoryAudio, []string{"audio/"}},
	{types.CategoryCode, []string{
		"text/x-python", "text/javascript", "text/html", "text/css",
		"application/json", "application/x-sh",
	}},
	{types.CategoryDocument, []string{
		"application/vnd.google-apps.document",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument",
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.ms-excel",
		"application/vnd.google-apps.presentation",
		"application/vnd.ms-powerpoint",
		"text/",
	}},
}

// CategoryForMIME classifies a MIME type into a detection category.
func CategoryForMIME(mimeType string) types.Category {
	if mimeType == "" {
		return types.CategoryOther
	}
	lower := strings.ToLower(mimeType)
	for _, entry := range mimeCategories {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.category
			}
		}
	}
	return types.CategoryOther
}

// BestHash picks the strongest digest the source reported: sha256, then
// sha1, then md5. With none available it falls back to a digest of the
// identifying metadata so hash grouping still has something to chew on.
func BestHash(rec *types.FileRecord) string {
	for _, algo := range []string{"sha256", "sha1", "md5"} {
		if h := rec.Hashes[algo]; h != "" {
			return h
		}
	}
	meta := fmt.Sprintf("%s-%d-%s", rec.Name, rec.Size, rec.MimeType)
	return fmt.Sprintf("%x", md5.Sum([]byte(meta)))
}

// SharingStatus derives the coarse sharing label. A file counts as shared
// only when it has permission entries beyond the owner's.
func SharingStatus(shared bool, permissionCount int) string {
	if shared && permissionCount > 1 {
		return "shared"
	}
	return "private"
}

// Enhance fills the derived fields a raw source record lacks. Present
// values are kept; only gaps are filled.
func Enhance(rec *types.FileRecord) {
	if !rec.Category.IsValid() || rec.Category == "" {
		rec.Category = CategoryForMIME(rec.MimeType)
	}
	if rec.ContentHash == "" {
		rec.ContentHash = BestHash(rec)
	}
	if rec.SharingStatus == "" {
		permissions := 0
		if v := rec.Extra["permission_count"]; v != "" {
			fmt.Sscanf(v, "%d", &permissions)
		}
		rec.SharingStatus = SharingStatus(rec.Shared, permissions)
	}
}
