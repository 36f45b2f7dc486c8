package engine

import (
	"fmt"
	"sort"

	"dupescan/internal/similarity"
	"dupescan/internal/strategy"
	"dupescan/internal/types"
)

// A pass scans one category's records and returns duplicate groups keyed by
// their local group ID. Passes share no state; the visited sets below are
// scoped to a single invocation.
type pass struct {
	name string
	run  func(files []types.FileRecord, cfg strategy.Config) (map[string]types.DuplicateGroup, error)
}

// savingsMB is the redundant storage a group represents: of n identical
// copies, n-1 are redundant.
func savingsMB(members []types.FileRecord) float64 {
	if len(members) < 2 {
		return 0
	}
	var total int64
	for i := range members {
		total += members[i].Size
	}
	redundant := float64(total) * float64(len(members)-1) / float64(len(members))
	return redundant / (1024 * 1024)
}

// exactHashPass groups records by their strongest repository checksum.
// The most reliable signal available: identical checksums mean identical
// bytes as far as the source repository can tell.
func exactHashPass(files []types.FileRecord, _ strategy.Config) (map[string]types.DuplicateGroup, error) {
	byHash := make(map[string][]types.FileRecord)
	var order []string
	for i := range files {
		h := files[i].ContentHash
		if h == "" {
			continue
		}
		if _, seen := byHash[h]; !seen {
			order = append(order, h)
		}
		byHash[h] = append(byHash[h], files[i])
	}

	groups := make(map[string]types.DuplicateGroup)
	for _, h := range order {
		members := byHash[h]
		if len(members) < 2 {
			continue
		}
		id := similarity.StableGroupID(types.MatchContentHash, h)
		groups[id] = types.DuplicateGroup{
			ID:                 id,
			Type:               types.MatchContentHash,
			Confidence:         types.ConfidenceHigh,
			Members:            members,
			PotentialSavingsMB: savingsMB(members),
			Method:             "content_hash",
		}
	}
	return groups, nil
}

// fuzzyNamePass groups records whose normalized names score at or above the
// threshold against a group anchor. Transitive within this pass only: each
// record joins at most one group via the explicit visited set.
func fuzzyNamePass(matchType types.MatchType, threshold int) func([]types.FileRecord, strategy.Config) (map[string]types.DuplicateGroup, error) {
	return func(files []types.FileRecord, _ strategy.Config) (map[string]types.DuplicateGroup, error) {
		groups := make(map[string]types.DuplicateGroup)
		visited := make(map[string]bool, len(files))

		for i := range files {
			if visited[files[i].ID] {
				continue
			}
			anchor := similarity.Normalize(files[i].Name)
			if anchor == "" {
				continue
			}

			members := []types.FileRecord{files[i]}
			for j := i + 1; j < len(files); j++ {
				if visited[files[j].ID] {
					continue
				}
				name := similarity.Normalize(files[j].Name)
				if name == "" {
					continue
				}
				if similarity.Ratio(anchor, name) >= threshold {
					members = append(members, files[j])
					visited[files[j].ID] = true
				}
			}
			visited[files[i].ID] = true

			if len(members) > 1 {
				id := similarity.StableGroupID(matchType, anchor)
				groups[id] = types.DuplicateGroup{
					ID:                 id,
					Type:               matchType,
					Confidence:         types.ConfidenceMedium,
					Members:            members,
					PotentialSavingsMB: savingsMB(members),
					Method:             "fuzzy_name_matching",
				}
			}
		}
		return groups, nil
	}
}

// sizePass groups records with identical byte sizes at or above the floor.
func sizePass(strict bool) func([]types.FileRecord, strategy.Config) (map[string]types.DuplicateGroup, error) {
	return func(files []types.FileRecord, cfg strategy.Config) (map[string]types.DuplicateGroup, error) {
		bySize := make(map[int64][]types.FileRecord)
		var order []int64
		for i := range files {
			size := files[i].Size
			if size < cfg.SizeMatchFloorBytes {
				continue
			}
			if _, seen := bySize[size]; !seen {
				order = append(order, size)
			}
			bySize[size] = append(bySize[size], files[i])
		}

		confidence := types.ConfidenceLow
		if strict {
			confidence = types.ConfidenceMedium
		}

		groups := make(map[string]types.DuplicateGroup)
		for _, size := range order {
			members := bySize[size]
			if len(members) < 2 {
				continue
			}
			id := similarity.StableGroupID(types.MatchExactSize, fmt.Sprintf("%d", size))
			groups[id] = types.DuplicateGroup{
				ID:                 id,
				Type:               types.MatchExactSize,
				Confidence:         confidence,
				Members:            members,
				PotentialSavingsMB: savingsMB(members),
				Method:             "size_matching",
			}
		}
		return groups, nil
	}
}

// nameSizePass groups records that are similar in name AND close in size.
// Stronger than either signal alone, hence medium confidence despite the
// fuzzy name comparison.
func nameSizePass(files []types.FileRecord, cfg strategy.Config) (map[string]types.DuplicateGroup, error) {
	groups := make(map[string]types.DuplicateGroup)
	visited := make(map[string]bool, len(files))

	for i := range files {
		if visited[files[i].ID] {
			continue
		}
		anchor := similarity.Normalize(files[i].Name)
		anchorSize := files[i].Size
		if anchor == "" || anchorSize == 0 {
			continue
		}

		members := []types.FileRecord{files[i]}
		for j := i + 1; j < len(files); j++ {
			if visited[files[j].ID] {
				continue
			}
			name := similarity.Normalize(files[j].Name)
			size := files[j].Size
			if name == "" || size == 0 {
				continue
			}

			maxSize := anchorSize
			if size > maxSize {
				maxSize = size
			}
			diff := float64(abs64(anchorSize-size)) / float64(maxSize)

			if similarity.Ratio(anchor, name) >= cfg.NameSizeThreshold && diff <= cfg.SizeVariance {
				members = append(members, files[j])
				visited[files[j].ID] = true
			}
		}
		visited[files[i].ID] = true

		if len(members) > 1 {
			id := similarity.StableGroupID(types.MatchNameSize, fmt.Sprintf("%s:%d", anchor, anchorSize))
			groups[id] = types.DuplicateGroup{
				ID:                 id,
				Type:               types.MatchNameSize,
				Confidence:         types.ConfidenceMedium,
				Members:            members,
				PotentialSavingsMB: savingsMB(members),
				Method:             "name_size_similarity",
			}
		}
	}
	return groups, nil
}

// perceptualPass groups image records whose average perceptual-hash distance
// is within the threshold of a group anchor. Transitive within this pass:
// a matches b and b matches c puts all three in one group.
func perceptualPass(files []types.FileRecord, cfg strategy.Config) (map[string]types.DuplicateGroup, error) {
	groups := make(map[string]types.DuplicateGroup)
	visited := make(map[string]bool, len(files))

	for i := range files {
		if visited[files[i].ID] {
			continue
		}
		if len(files[i].ImageHashes) == 0 {
			continue
		}

		members := []types.FileRecord{files[i]}
		frontier := []int{i}
		visited[files[i].ID] = true

		// Expand transitively: any unvisited image within threshold of any
		// current member joins the group.
		for len(frontier) > 0 {
			cur := frontier[0]
			frontier = frontier[1:]

			for j := range files {
				if visited[files[j].ID] || len(files[j].ImageHashes) == 0 {
					continue
				}
				avg, ok := similarity.AverageHashDistance(files[cur].ImageHashes, files[j].ImageHashes)
				if !ok || avg > cfg.ImageHashThreshold {
					continue
				}
				members = append(members, files[j])
				visited[files[j].ID] = true
				frontier = append(frontier, j)
			}
		}

		if len(members) > 1 {
			id := similarity.StableGroupID(types.MatchPerceptualImage, files[i].ID)
			groups[id] = types.DuplicateGroup{
				ID:                 id,
				Type:               types.MatchPerceptualImage,
				Confidence:         types.ConfidenceHigh,
				Members:            members,
				PotentialSavingsMB: savingsMB(members),
				Method:             "perceptual_hashing",
			}
		}
	}
	return groups, nil
}

// crossCategoryPass re-runs content-hash grouping over the whole filtered
// corpus and keeps only groups spanning more than one category.
func crossCategoryPass(files []types.FileRecord, cfg strategy.Config) (map[string]types.DuplicateGroup, error) {
	hashGroups, err := exactHashPass(files, cfg)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]types.DuplicateGroup)
	for id, g := range hashGroups {
		categories := make(map[types.Category]bool)
		for i := range g.Members {
			categories[g.Members[i].Category] = true
		}
		if len(categories) < 2 {
			continue
		}
		g.Type = types.MatchCrossCategory
		g.Method = "cross_category_hash"
		g.Category = ""
		g.ID = "cross_" + id
		groups[g.ID] = g
	}
	return groups, nil
}

// abs64 avoids pulling in math for one int64 absolute value.
func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// sortedCategories returns map keys in deterministic order so runs over the
// same corpus produce identically ordered logs and discovery order.
func sortedCategories(byCategory map[types.Category][]types.FileRecord) []types.Category {
	cats := make([]types.Category, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
