package strategy

import (
	"fmt"

	"dupescan/internal/types"
)

// Config holds the tuning knobs shared by all match strategies and the
// detection engine. It is passed explicitly into every call; strategies hold
// no mutable state of their own.
type Config struct {
	// KeyFields are the identity fields combined into the composite record
	// key used by the exact and fuzzy strategies.
	// Default: id, source_url
	KeyFields []string

	// ContentFields are digested into the content hash. Deliberately distinct
	// from KeyFields: two records can share content while having different
	// identities.
	// Default: summary, tags
	ContentFields []string

	// TitleField is the single field examined by the title-similarity
	// strategy.
	// Default: name
	TitleField string

	// FuzzyThreshold is the minimum 0-100 similarity for a fuzzy key match.
	// Default: 85
	FuzzyThreshold int

	// TitleThreshold is the minimum similarity for a title match. Independent
	// of FuzzyThreshold: titles tolerate more variation than identity keys.
	// Default: 80
	TitleThreshold int

	// NameSizeThreshold is the minimum name similarity for the combined
	// name+size heuristic used on document corpora.
	// Default: 80
	NameSizeThreshold int

	// CodeNameThreshold is the stricter name-similarity bar applied to code
	// files, which routinely differ by a single character.
	// Default: 95
	CodeNameThreshold int

	// SizeVariance is the allowed relative size difference for the name+size
	// heuristic, e.g. 0.1 = 10%.
	// Default: 0.1
	SizeVariance float64

	// ImageHashThreshold is the maximum average Hamming distance across
	// perceptual hash algorithms for two images to be considered duplicates.
	// Default: 5
	ImageHashThreshold float64

	// SizeMatchFloorBytes gates the size heuristic: files below this size are
	// never size-matched, exact byte collisions are too common among small
	// files.
	// Default: 1 MiB
	SizeMatchFloorBytes int64

	// MinFileSizeMB filters the corpus before detection; tiny files are not
	// worth analyzing.
	// Default: 0.1 (100 KiB)
	MinFileSizeMB float64

	// StrictSizeCategories promote a size-only match from low to medium
	// confidence. Size is a much stronger signal for large media files.
	// Default: video, audio
	StrictSizeCategories []types.Category
}

// DefaultConfig returns the default strategy configuration.
//
// Thresholds are chosen to keep false positives rare on identity matching
// (high fuzzy bar) while still surfacing renamed copies (lower title bar).
func DefaultConfig() Config {
	return Config{
		KeyFields:            []string{"id", "source_url"},
		ContentFields:        []string{"summary", "tags"},
		TitleField:           "name",
		FuzzyThreshold:       85,
		TitleThreshold:       80,
		NameSizeThreshold:    80,
		CodeNameThreshold:    95,
		SizeVariance:         0.1,
		ImageHashThreshold:   5,
		SizeMatchFloorBytes:  1024 * 1024,
		MinFileSizeMB:        0.1,
		StrictSizeCategories: []types.Category{types.CategoryVideo, types.CategoryAudio},
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if len(c.KeyFields) == 0 {
		return fmt.Errorf("key_fields must not be empty")
	}
	if c.TitleField == "" {
		return fmt.Errorf("title_field is required")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 100 (got %d)", c.FuzzyThreshold)
	}
	if c.TitleThreshold < 0 || c.TitleThreshold > 100 {
		return fmt.Errorf("title_threshold must be between 0 and 100 (got %d)", c.TitleThreshold)
	}
	if c.NameSizeThreshold < 0 || c.NameSizeThreshold > 100 {
		return fmt.Errorf("name_size_threshold must be between 0 and 100 (got %d)", c.NameSizeThreshold)
	}
	if c.CodeNameThreshold < 0 || c.CodeNameThreshold > 100 {
		return fmt.Errorf("code_name_threshold must be between 0 and 100 (got %d)", c.CodeNameThreshold)
	}
	if c.SizeVariance < 0 || c.SizeVariance > 1 {
		return fmt.Errorf("size_variance must be between 0 and 1 (got %.2f)", c.SizeVariance)
	}
	if c.ImageHashThreshold < 0 {
		return fmt.Errorf("image_hash_threshold cannot be negative (got %.1f)", c.ImageHashThreshold)
	}
	if c.SizeMatchFloorBytes < 0 {
		return fmt.Errorf("size_match_floor_bytes cannot be negative (got %d)", c.SizeMatchFloorBytes)
	}
	if c.MinFileSizeMB < 0 {
		return fmt.Errorf("min_file_size_mb cannot be negative (got %.2f)", c.MinFileSizeMB)
	}
	for _, cat := range c.StrictSizeCategories {
		if !cat.IsValid() {
			return fmt.Errorf("invalid strict size category: %s", cat)
		}
	}
	return nil
}

// StrictSize reports whether the given category promotes size-only matches
// to medium confidence.
func (c Config) StrictSize(cat types.Category) bool {
	for _, s := range c.StrictSizeCategories {
		if s == cat {
			return true
		}
	}
	return false
}
