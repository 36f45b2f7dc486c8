package engine

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"dupescan/internal/strategy"
	"dupescan/internal/types"
)

// Engine runs the full multi-pass duplicate analysis over a scanned corpus.
type Engine struct {
	cfg    strategy.Config
	logger *zap.Logger

	// passes maps each category to its designated detection passes, in the
	// order they run. Overridable in tests.
	passes map[types.Category][]pass

	// defaultPasses run for categories with no designated subset.
	defaultPasses []pass
}

// New creates a detection engine with the designated per-category passes.
func New(cfg strategy.Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{cfg: cfg, logger: logger}

	exact := pass{name: "exact_hash", run: exactHashPass}
	e.passes = map[types.Category][]pass{
		types.CategoryImage: {
			exact,
			{name: "perceptual_image", run: perceptualPass},
		},
		types.CategoryDocument: {
			exact,
			{name: "name_size", run: nameSizePass},
			{name: "title_similarity", run: fuzzyNamePass(types.MatchTitleSimilarity, cfg.TitleThreshold)},
		},
		types.CategoryVideo: {
			exact,
			{name: "strict_size", run: sizePass(true)},
		},
		types.CategoryAudio: {
			exact,
			{name: "fuzzy_name", run: fuzzyNamePass(types.MatchFuzzy, cfg.FuzzyThreshold)},
		},
		types.CategoryCode: {
			exact,
			{name: "fuzzy_name", run: fuzzyNamePass(types.MatchFuzzy, cfg.CodeNameThreshold)},
		},
	}
	e.defaultPasses = []pass{
		exact,
		{name: "fuzzy_name", run: fuzzyNamePass(types.MatchFuzzy, cfg.FuzzyThreshold)},
		{name: "size", run: sizePass(false)},
	}
	return e, nil
}

// DetectAll analyzes the corpus and returns groups, rankings, statistics,
// and the structured analysis report.
//
// A nil corpus is an error: it means the scan collaborator never produced
// records, which is a run-level failure, not an empty result.
func (e *Engine) DetectAll(records []types.FileRecord) (*types.DetectionResult, error) {
	if records == nil {
		return nil, &types.ScanError{Source: "corpus", Err: fmt.Errorf("no records to analyze")}
	}

	filtered := e.filterBySize(records)
	byCategory := groupByCategory(filtered)

	e.logger.Info("starting duplicate detection",
		zap.Int("total_records", len(records)),
		zap.Int("analyzed", len(filtered)),
		zap.Int("categories", len(byCategory)))

	stats := types.DetectionStats{
		TotalAnalyzed:   len(filtered),
		FilesByCategory: make(map[types.Category]int, len(byCategory)),
	}

	allGroups := make(map[string]types.DuplicateGroup)
	var discovery []string

	for _, cat := range sortedCategories(byCategory) {
		files := byCategory[cat]
		stats.FilesByCategory[cat] = len(files)

		for _, p := range e.categoryPasses(cat) {
			groups, err := p.run(files, e.cfg)
			if err != nil {
				// One failing pass never aborts the run.
				skipped := fmt.Sprintf("%s/%s", cat, p.name)
				stats.StrategiesSkipped = append(stats.StrategiesSkipped, skipped)
				e.logger.Warn("detection pass failed, skipping",
					zap.String("category", string(cat)),
					zap.String("pass", p.name),
					zap.Error(err))
				continue
			}
			for _, id := range sortedGroupIDs(groups) {
				g := groups[id]
				merged := fmt.Sprintf("%s_%s", cat, id)
				if _, exists := allGroups[merged]; exists {
					continue
				}
				g.ID = merged
				g.Category = cat
				allGroups[merged] = g
				discovery = append(discovery, merged)
			}
		}
	}

	// Cross-category pass: content-hash equality only.
	crossGroups, err := crossCategoryPass(filtered, e.cfg)
	if err != nil {
		stats.StrategiesSkipped = append(stats.StrategiesSkipped, "cross/content_hash")
		e.logger.Warn("cross-category pass failed, skipping", zap.Error(err))
	} else {
		for _, id := range sortedGroupIDs(crossGroups) {
			allGroups[id] = crossGroups[id]
			discovery = append(discovery, id)
		}
	}

	stats.TotalGroups = len(allGroups)
	for _, g := range allGroups {
		stats.TotalDuplicates += g.MemberCount()
		stats.PotentialSavingsMB += g.PotentialSavingsMB
	}

	result := &types.DetectionResult{
		Groups:    allGroups,
		Ranked:    rankGroups(allGroups, discovery),
		Stats:     stats,
		Report:    buildReport(allGroups, discovery),
		Timestamp: time.Now().UTC(),
	}

	e.logger.Info("duplicate detection complete",
		zap.Int("groups", stats.TotalGroups),
		zap.Int("duplicates", stats.TotalDuplicates),
		zap.Float64("potential_savings_mb", stats.PotentialSavingsMB))

	return result, nil
}

// CheckDuplicate runs the composite first-match-wins strategy for a single
// candidate against a corpus. This is the ingest-time entry point used by
// the partition manager.
func (e *Engine) CheckDuplicate(candidate *types.FileRecord, corpus []types.FileRecord) (*types.MatchResult, error) {
	return strategy.NewMulti(e.logger).Match(candidate, corpus, e.cfg)
}

func (e *Engine) categoryPasses(cat types.Category) []pass {
	if p, ok := e.passes[cat]; ok {
		return p
	}
	return e.defaultPasses
}

func (e *Engine) filterBySize(records []types.FileRecord) []types.FileRecord {
	minBytes := int64(e.cfg.MinFileSizeMB * 1024 * 1024)
	filtered := make([]types.FileRecord, 0, len(records))
	for i := range records {
		if records[i].Size >= minBytes {
			filtered = append(filtered, records[i])
		}
	}
	return filtered
}

func groupByCategory(records []types.FileRecord) map[types.Category][]types.FileRecord {
	byCategory := make(map[types.Category][]types.FileRecord)
	for i := range records {
		cat := records[i].Category
		if !cat.IsValid() {
			cat = types.CategoryOther
		}
		byCategory[cat] = append(byCategory[cat], records[i])
	}
	return byCategory
}

// sortedGroupIDs fixes a deterministic discovery order within one pass.
func sortedGroupIDs(groups map[string]types.DuplicateGroup) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
