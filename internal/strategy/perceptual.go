package strategy

import (
	"fmt"
	"math"

	"dupescan/internal/similarity"
	"dupescan/internal/types"
)

// Perceptual matches image records by average Hamming distance across the
// perceptual hash algorithms both sides carry. Only applicable to
// image-category records that have at least one perceptual hash.
type Perceptual struct{}

func (Perceptual) Name() string { return "perceptual_image" }

func (Perceptual) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	if candidate.Category != types.CategoryImage || len(candidate.ImageHashes) == 0 {
		return nil, nil
	}

	bestIndex := -1
	bestDist := math.MaxFloat64
	for i := range corpus {
		if corpus[i].Category != types.CategoryImage || len(corpus[i].ImageHashes) == 0 {
			continue
		}
		avg, ok := similarity.AverageHashDistance(candidate.ImageHashes, corpus[i].ImageHashes)
		if !ok || avg > cfg.ImageHashThreshold {
			continue
		}
		if avg < bestDist {
			bestDist = avg
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return nil, nil
	}
	return &types.MatchResult{
		Type:         types.MatchPerceptualImage,
		Confidence:   types.ConfidenceHigh,
		Score:        perceptualScore(bestDist),
		MatchedID:    corpus[bestIndex].ID,
		MatchedIndex: bestIndex,
		Details:      fmt.Sprintf("perceptual hash match (avg distance: %.1f)", bestDist),
	}, nil
}

// perceptualScore maps an average hash distance onto the 0-100 match scale.
// Distance 0 is a certain match; each distance unit costs 5 points.
func perceptualScore(avgDist float64) int {
	score := 100 - int(math.Round(avgDist))*5
	if score < 0 {
		return 0
	}
	return score
}
