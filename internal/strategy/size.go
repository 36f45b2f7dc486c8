package strategy

import (
	"fmt"

	"dupescan/internal/types"
)

// Size matches on exact byte-size equality, gated by a minimum-size floor.
// Tiny files collide on size constantly, so they are excluded outright.
// Confidence is fixed at low unless the candidate's category is configured
// strict (large media files rarely share an exact byte count by accident).
type Size struct{}

func (Size) Name() string { return "exact_size" }

func (Size) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	if candidate.Size < cfg.SizeMatchFloorBytes {
		return nil, nil
	}
	for i := range corpus {
		if corpus[i].Size != candidate.Size {
			continue
		}
		confidence := types.ConfidenceLow
		if cfg.StrictSize(candidate.Category) {
			confidence = types.ConfidenceMedium
		}
		return &types.MatchResult{
			Type:         types.MatchExactSize,
			Confidence:   confidence,
			Score:        60,
			MatchedID:    corpus[i].ID,
			MatchedIndex: i,
			Details:      fmt.Sprintf("identical size: %d bytes (%.2f MB)", candidate.Size, candidate.SizeMB()),
		}, nil
	}
	return nil, nil
}
