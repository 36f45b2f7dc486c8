package similarity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"dupescan/internal/types"
)

// keySeparator joins the parts of composite keys and content hashes. Fixed so
// hashes stay stable across versions.
const keySeparator = "|"

// RecordKey builds the normalized composite key used by the exact and fuzzy
// strategies. Each configured field with a non-empty normalized value
// contributes "field:value"; parts are joined in the given field order.
// Returns "" when no field produced content.
func RecordKey(rec *types.FileRecord, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		normalized := Normalize(rec.Field(field))
		if normalized != "" {
			parts = append(parts, field+":"+normalized)
		}
	}
	return strings.Join(parts, keySeparator)
}

// ContentHash digests the normalized values of the given fields. The values
// are sorted before joining so the hash is invariant under field reordering.
// Returns "" when no field produced non-empty content.
func ContentHash(rec *types.FileRecord, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		normalized := Normalize(rec.Field(field))
		if normalized != "" {
			parts = append(parts, normalized)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	combined := strings.Join(parts, keySeparator)
	return fmt.Sprintf("%016x", xxhash.Sum64String(combined))
}

// StableGroupID derives a deterministic group identifier from a match type
// and the first matching key, so identical inputs reproduce identical IDs.
func StableGroupID(matchType types.MatchType, key string) string {
	return fmt.Sprintf("%s_%08x", matchType, uint32(xxhash.Sum64String(key)))
}
