package engine

import (
	"sort"

	"dupescan/internal/types"
)

// compositeScore ranks a group by confidence first, then potential savings
// (capped so one huge group cannot dominate), then member count.
func compositeScore(g *types.DuplicateGroup) int {
	savings := g.PotentialSavingsMB
	if savings > 1000 {
		savings = 1000
	}
	return g.Confidence.Weight()*100 + int(savings) + g.MemberCount()*10
}

// rankGroups orders groups by composite score, descending. The sort is
// stable over discovery order, so equal scores keep the order in which the
// groups were found.
func rankGroups(groups map[string]types.DuplicateGroup, discovery []string) []types.RankedGroup {
	ranked := make([]types.RankedGroup, 0, len(discovery))
	for _, id := range discovery {
		g := groups[id]
		ranked = append(ranked, types.RankedGroup{
			GroupID:            g.ID,
			Score:              compositeScore(&g),
			Confidence:         g.Confidence,
			Type:               g.Type,
			MemberCount:        g.MemberCount(),
			PotentialSavingsMB: g.PotentialSavingsMB,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// buildReport assembles the structured analysis report: tier counts, operator
// recommendations, and the top priority groups.
func buildReport(groups map[string]types.DuplicateGroup, discovery []string) types.AnalysisReport {
	summary := types.ReportSummary{TotalGroups: len(groups)}
	methods := make(map[string]bool)

	for _, id := range discovery {
		g := groups[id]
		switch g.Confidence {
		case types.ConfidenceHigh:
			summary.HighConfidence++
		case types.ConfidenceMedium:
			summary.MediumConfidence++
		default:
			summary.LowConfidence++
		}
		summary.PotentialSavingsMB += g.PotentialSavingsMB
		if g.Method != "" && !methods[g.Method] {
			methods[g.Method] = true
			summary.Methods = append(summary.Methods, g.Method)
		}
	}

	report := types.AnalysisReport{Summary: summary}

	if summary.HighConfidence > 0 {
		var highSavings float64
		for _, id := range discovery {
			if g := groups[id]; g.Confidence == types.ConfidenceHigh {
				highSavings += g.PotentialSavingsMB
			}
		}
		report.Recommendations = append(report.Recommendations, types.Recommendation{
			Priority:           "high",
			Action:             "Review and delete high-confidence duplicates",
			PotentialSavingsMB: highSavings,
			GroupCount:         summary.HighConfidence,
		})
	}
	if summary.LowConfidence > 0 {
		report.Recommendations = append(report.Recommendations, types.Recommendation{
			Priority:   "low",
			Action:     "Manually inspect low-confidence groups before acting",
			GroupCount: summary.LowConfidence,
		})
	}

	// Top priority: high confidence first, then by savings.
	ordered := make([]string, len(discovery))
	copy(ordered, discovery)
	sort.SliceStable(ordered, func(i, j int) bool {
		gi, gj := groups[ordered[i]], groups[ordered[j]]
		hi := gi.Confidence == types.ConfidenceHigh
		hj := gj.Confidence == types.ConfidenceHigh
		if hi != hj {
			return hi
		}
		return gi.PotentialSavingsMB > gj.PotentialSavingsMB
	})

	const topN = 10
	for _, id := range ordered {
		if len(report.TopGroups) == topN {
			break
		}
		g := groups[id]
		digest := types.GroupDigest{
			GroupID:            g.ID,
			Type:               g.Type,
			Confidence:         g.Confidence,
			MemberCount:        g.MemberCount(),
			PotentialSavingsMB: g.PotentialSavingsMB,
		}
		for i := range g.Members {
			if i == 3 {
				break
			}
			digest.SampleNames = append(digest.SampleNames, g.Members[i].Name)
		}
		report.TopGroups = append(report.TopGroups, digest)
	}
	return report
}
