package types

import (
	"fmt"
	"time"
)

// FileRecord is one scanned item from the source repository.
//
// Records are produced by the scan collaborator and are read-only from the
// detection engine's point of view. Uninterpreted source fields are carried
// in Extra so new repository attributes survive a round trip without schema
// changes.
type FileRecord struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Size          int64             `json:"size"`
	MimeType      string            `json:"mime_type,omitempty"`
	Category      Category          `json:"category"`
	ContentHash   string            `json:"content_hash,omitempty"` // best available digest
	Hashes        map[string]string `json:"hashes,omitempty"`       // md5/sha1/sha256 as reported
	ImageHashes   map[string]string `json:"image_hashes,omitempty"` // perceptual hashes by algorithm
	OwnerEmail    string            `json:"owner_email,omitempty"`
	OwnerName     string            `json:"owner_name,omitempty"`
	Shared        bool              `json:"shared"`
	SharingStatus string            `json:"sharing_status,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ModifiedAt    time.Time         `json:"modified_at"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// SizeMB returns the declared size in megabytes.
func (r *FileRecord) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}

// Field returns the value of a named logical field, checking the fixed
// schema first and falling back to Extra. Unknown fields yield "".
func (r *FileRecord) Field(name string) string {
	switch name {
	case "id":
		return r.ID
	case "name":
		return r.Name
	case "size":
		if r.Size == 0 {
			return ""
		}
		return fmt.Sprintf("%d", r.Size)
	case "mime_type":
		return r.MimeType
	case "content_hash":
		return r.ContentHash
	case "owner_email":
		return r.OwnerEmail
	case "owner_name":
		return r.OwnerName
	case "sharing_status":
		return r.SharingStatus
	}
	return r.Extra[name]
}

// SetField assigns a named logical field, mirroring Field. Numeric and
// structured fields cannot be set this way; those land in Extra.
func (r *FileRecord) SetField(name, value string) {
	switch name {
	case "id":
		r.ID = value
	case "name":
		r.Name = value
	case "mime_type":
		r.MimeType = value
	case "content_hash":
		r.ContentHash = value
	case "owner_email":
		r.OwnerEmail = value
	case "owner_name":
		r.OwnerName = value
	case "sharing_status":
		r.SharingStatus = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[name] = value
	}
}

// Validate checks if the record has valid field values.
func (r *FileRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Size < 0 {
		return fmt.Errorf("size cannot be negative (got %d)", r.Size)
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", r.Category)
	}
	return nil
}

// Category is the broad file class used to pick strategy subsets.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryCode     Category = "code"
	CategoryOther    Category = "other"
)

// IsValid checks if the category value is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio, CategoryCode, CategoryOther:
		return true
	}
	return false
}

// MatchType identifies which strategy produced a match or group.
type MatchType string

const (
	MatchExact           MatchType = "exact"
	MatchFuzzy           MatchType = "fuzzy"
	MatchTitleSimilarity MatchType = "title_similarity"
	MatchContentHash     MatchType = "content_hash"
	MatchPerceptualImage MatchType = "perceptual_image"
	MatchNameSize        MatchType = "name_size_similarity"
	MatchExactSize       MatchType = "exact_size"
	MatchCrossCategory   MatchType = "cross_category"
)

// IsValid checks if the match type value is valid.
func (m MatchType) IsValid() bool {
	switch m {
	case MatchExact, MatchFuzzy, MatchTitleSimilarity, MatchContentHash,
		MatchPerceptualImage, MatchNameSize, MatchExactSize, MatchCrossCategory:
		return true
	}
	return false
}

// Confidence is the coarse reliability tier of a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValid checks if the confidence value is valid.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Weight returns the ranking weight for the tier: high=3, medium=2, low=1.
func (c Confidence) Weight() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// MatchResult is the outcome of one strategy applied to one candidate
// against a corpus. Ephemeral; consumed immediately by the engine.
type MatchResult struct {
	Type       MatchType  `json:"match_type"`
	Confidence Confidence `json:"confidence"`

	// Score is on the strategy-defined 0-100 scale, 100 = certain.
	Score int `json:"score"`

	// MatchedID is the identifier of the matched counterpart.
	MatchedID string `json:"matched_id"`

	// MatchedIndex is the counterpart's index in the corpus iteration order.
	MatchedIndex int `json:"matched_index"`

	// Details is a human-readable explanation of the match.
	Details string `json:"details"`
}

// Validate checks if the match result has valid field values.
func (m *MatchResult) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid match type: %s", m.Type)
	}
	if !m.Confidence.IsValid() {
		return fmt.Errorf("invalid confidence: %s", m.Confidence)
	}
	if m.Score < 0 || m.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100 (got %d)", m.Score)
	}
	if m.MatchedID == "" {
		return fmt.Errorf("matched_id is required")
	}
	return nil
}

// DuplicateGroup is a set of two or more records deemed related by one
// strategy. Never mutated after creation.
type DuplicateGroup struct {
	// ID is derived deterministically from the match type and a stable hash
	// of the first matching key, so identical inputs reproduce identical IDs.
	ID         string       `json:"group_id"`
	Type       MatchType    `json:"type"`
	Confidence Confidence   `json:"confidence"`
	Category   Category     `json:"category,omitempty"`
	Members    []FileRecord `json:"files"`

	// PotentialSavingsMB is the redundant storage this group represents:
	// total bytes across members times (n-1)/n, in megabytes.
	PotentialSavingsMB float64 `json:"potential_savings_mb"`

	// Method names the detection mechanism for reporting.
	Method string `json:"detection_method,omitempty"`
}

// MemberCount returns the number of records in the group.
func (g *DuplicateGroup) MemberCount() int { return len(g.Members) }

// Validate checks if the group has valid field values.
func (g *DuplicateGroup) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("group_id is required")
	}
	if !g.Type.IsValid() {
		return fmt.Errorf("invalid group type: %s", g.Type)
	}
	if !g.Confidence.IsValid() {
		return fmt.Errorf("invalid confidence: %s", g.Confidence)
	}
	if len(g.Members) < 2 {
		return fmt.Errorf("a duplicate group needs at least 2 members (got %d)", len(g.Members))
	}
	if g.PotentialSavingsMB < 0 {
		return fmt.Errorf("potential_savings_mb cannot be negative (got %.2f)", g.PotentialSavingsMB)
	}
	return nil
}

// RankedGroup is a duplicate group with its composite ranking score.
type RankedGroup struct {
	GroupID            string     `json:"group_id"`
	Score              int        `json:"score"`
	Confidence         Confidence `json:"confidence"`
	Type               MatchType  `json:"type"`
	MemberCount        int        `json:"duplicate_count"`
	PotentialSavingsMB float64    `json:"potential_savings_mb"`
}

// DetectionStats summarizes one detection run.
type DetectionStats struct {
	TotalAnalyzed   int              `json:"total_files_analyzed"`
	FilesByCategory map[Category]int `json:"files_by_category"`
	TotalGroups     int              `json:"total_duplicate_groups"`

	// TotalDuplicates sums member counts across groups without deduplicating
	// records that appear in more than one group. The overcount mirrors
	// potential storage impact and is intentional.
	TotalDuplicates    int      `json:"total_duplicates_found"`
	PotentialSavingsMB float64  `json:"potential_space_saved_mb"`
	StrategiesSkipped  []string `json:"strategies_skipped,omitempty"`
}

// DetectionResult is the full output of Engine.DetectAll.
type DetectionResult struct {
	Groups    map[string]DuplicateGroup `json:"duplicates"`
	Ranked    []RankedGroup             `json:"ranked_duplicates"`
	Stats     DetectionStats            `json:"statistics"`
	Report    AnalysisReport            `json:"analysis_report"`
	Timestamp time.Time                 `json:"detection_timestamp"`
}

// AnalysisReport is the structured report attached to a detection result.
type AnalysisReport struct {
	Summary         ReportSummary    `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	TopGroups       []GroupDigest    `json:"top_priority_groups"`
}

// ReportSummary aggregates group counts by confidence tier.
type ReportSummary struct {
	TotalGroups        int      `json:"total_duplicate_groups"`
	HighConfidence     int      `json:"high_confidence_groups"`
	MediumConfidence   int      `json:"medium_confidence_groups"`
	LowConfidence      int      `json:"low_confidence_groups"`
	PotentialSavingsMB float64  `json:"total_potential_savings_mb"`
	Methods            []string `json:"detection_methods_used"`
}

// Recommendation is a suggested operator action derived from the analysis.
type Recommendation struct {
	Priority           string  `json:"priority"`
	Action             string  `json:"action"`
	PotentialSavingsMB float64 `json:"potential_savings_mb"`
	GroupCount         int     `json:"groups_count"`
}

// GroupDigest is the abbreviated view of a group used in report listings.
type GroupDigest struct {
	GroupID            string     `json:"group_id"`
	Type               MatchType  `json:"type"`
	Confidence         Confidence `json:"confidence"`
	MemberCount        int        `json:"duplicate_count"`
	PotentialSavingsMB float64    `json:"potential_savings_mb"`
	SampleNames        []string   `json:"sample_files"`
}

// DuplicateAction selects what ingest does with a record flagged as a
// duplicate of an already-persisted row.
type DuplicateAction string

const (
	ActionSkip  DuplicateAction = "skip"
	ActionFlag  DuplicateAction = "flag"
	ActionAllow DuplicateAction = "allow"
)

// IsValid checks if the action value is valid.
func (a DuplicateAction) IsValid() bool {
	switch a {
	case ActionSkip, ActionFlag, ActionAllow:
		return true
	}
	return false
}

// AppendResult reports the outcome of a batch append. Batch operations
// return counts instead of failing on partial errors.
type AppendResult struct {
	TotalRows      int      `json:"total_rows"`
	AcceptedRows   int      `json:"successful_rows"`
	FailedRows     int      `json:"failed_rows"`
	SkippedRows    int      `json:"skipped_rows"`
	FlaggedRows    int      `json:"flagged_rows"`
	ContainersUsed []string `json:"containers_used"`
	PartitionsUsed []string `json:"partitions_used"`
}

// StatusReport is the aggregate view of all containers and partitions.
type StatusReport struct {
	Timestamp         time.Time         `json:"timestamp"`
	ContainerCount    int               `json:"total_containers"`
	PartitionCount    int               `json:"total_partitions"`
	TotalRows         int               `json:"total_rows"`
	AvailableCapacity int               `json:"available_capacity"`
	Containers        []ContainerStatus `json:"containers"`
}

// ContainerStatus summarizes one container inside a status report.
type ContainerStatus struct {
	Name           string `json:"name"`
	Handle         string `json:"handle"`
	PartitionCount int    `json:"partition_count"`
	TotalRows      int    `json:"total_rows"`
	AvailableSpace int    `json:"available_space"`
}

// Location identifies where a record row lives.
type Location struct {
	ContainerName   string `json:"container_name"`
	ContainerHandle string `json:"container_handle"`
	PartitionHandle string `json:"partition_handle"`
	RowIndex        int    `json:"row_index"` // 1-based, row 1 is the header
}
