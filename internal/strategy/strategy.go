// Package strategy implements the independent duplicate-match detectors.
//
// Each strategy answers one question: is this candidate a duplicate of
// something already in the corpus, under one specific notion of sameness?
// Strategies are pure given their Config and return at most one best match.
// The Multi composite chains them in a fixed priority order and returns the
// first positive match - not the best-scoring one across all strategies.
// Changing that order changes which confidence label a pair receives, so the
// order is part of the contract.
package strategy

import (
	"fmt"

	"dupescan/internal/similarity"
	"dupescan/internal/types"
)

// Strategy is one duplicate detector. Match returns the best match for the
// candidate against the corpus, or nil when there is none. Corpus iteration
// order is the tie-break order: the earliest qualifying record wins ties.
type Strategy interface {
	// Name identifies the strategy in logs and skip lists.
	Name() string

	// Match compares the candidate against the corpus under cfg.
	Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error)
}

// Exact matches on equality of the normalized composite key built from
// cfg.KeyFields. The first equal corpus record wins.
type Exact struct{}

func (Exact) Name() string { return "exact" }

func (Exact) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	key := similarity.RecordKey(candidate, cfg.KeyFields)
	if key == "" {
		return nil, nil
	}
	for i := range corpus {
		if similarity.RecordKey(&corpus[i], cfg.KeyFields) == key {
			return &types.MatchResult{
				Type:         types.MatchExact,
				Confidence:   types.ConfidenceHigh,
				Score:        100,
				MatchedID:    corpus[i].ID,
				MatchedIndex: i,
				Details:      fmt.Sprintf("exact match on key: %s", key),
			}, nil
		}
	}
	return nil, nil
}

// Fuzzy scores the composite key via edit-distance similarity and keeps the
// highest-scoring corpus record at or above cfg.FuzzyThreshold. Ties are
// broken by the earliest corpus index.
type Fuzzy struct{}

func (Fuzzy) Name() string { return "fuzzy" }

func (Fuzzy) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	key := similarity.RecordKey(candidate, cfg.KeyFields)
	if key == "" {
		return nil, nil
	}

	bestScore, bestIndex := 0, -1
	for i := range corpus {
		other := similarity.RecordKey(&corpus[i], cfg.KeyFields)
		if other == "" {
			continue
		}
		score := similarity.Ratio(key, other)
		// Strictly greater keeps the earliest index on ties.
		if score >= cfg.FuzzyThreshold && score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return nil, nil
	}
	return &types.MatchResult{
		Type:         types.MatchFuzzy,
		Confidence:   types.ConfidenceMedium,
		Score:        bestScore,
		MatchedID:    corpus[bestIndex].ID,
		MatchedIndex: bestIndex,
		Details:      fmt.Sprintf("fuzzy match (score: %d%%) on key fields", bestScore),
	}, nil
}

// Title compares only the designated title field, with its own threshold.
type Title struct{}

func (Title) Name() string { return "title_similarity" }

func (Title) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	title := similarity.Normalize(candidate.Field(cfg.TitleField))
	if title == "" {
		return nil, nil
	}

	bestScore, bestIndex := 0, -1
	var bestTitle string
	for i := range corpus {
		other := similarity.Normalize(corpus[i].Field(cfg.TitleField))
		if other == "" {
			continue
		}
		score := similarity.Ratio(title, other)
		if score >= cfg.TitleThreshold && score > bestScore {
			bestScore = score
			bestIndex = i
			bestTitle = other
		}
	}
	if bestIndex < 0 {
		return nil, nil
	}
	return &types.MatchResult{
		Type:         types.MatchTitleSimilarity,
		Confidence:   types.ConfidenceMedium,
		Score:        bestScore,
		MatchedID:    corpus[bestIndex].ID,
		MatchedIndex: bestIndex,
		Details:      fmt.Sprintf("similar title (score: %d%%): %q vs %q", bestScore, title, bestTitle),
	}, nil
}

// ContentHash matches on equality of the content hash digested from
// cfg.ContentFields, falling back to the repository checksum for records
// whose content fields are empty.
type ContentHash struct{}

func (ContentHash) Name() string { return "content_hash" }

// contentDigest prefers the field-derived hash so two records with equal
// bytes but different summaries still compare on their configured content.
func contentDigest(rec *types.FileRecord, cfg Config) string {
	if h := similarity.ContentHash(rec, cfg.ContentFields); h != "" {
		return h
	}
	return rec.ContentHash
}

func (ContentHash) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	hash := contentDigest(candidate, cfg)
	if hash == "" {
		return nil, nil
	}
	for i := range corpus {
		if contentDigest(&corpus[i], cfg) == hash {
			return &types.MatchResult{
				Type:         types.MatchContentHash,
				Confidence:   types.ConfidenceHigh,
				Score:        100,
				MatchedID:    corpus[i].ID,
				MatchedIndex: i,
				Details:      fmt.Sprintf("content hash match: %s", hash),
			}, nil
		}
	}
	return nil, nil
}
