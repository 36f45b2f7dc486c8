// Package engine orchestrates duplicate detection across a scanned corpus.
//
// The engine does not compare records itself; it owns the run structure
// around the detection passes in this package and the primitives in
// internal/similarity:
//
//   - filter records below the configured minimum size
//   - split the corpus by category and run each category's designated passes
//   - merge per-category groups into one namespace, keyed
//     "{category}_{localID}" so two categories can never collide
//   - run one extra cross-category pass restricted to content-hash equality
//     (cheap and category-agnostic), tagging its groups "cross_"
//   - rank groups by a composite of confidence, potential savings, and
//     member count
//   - produce run statistics and a structured analysis report
//
// Failure policy: a detection pass that errors is skipped for that category
// and recorded in the run statistics; the run continues with the remaining
// passes. Only an unreadable corpus aborts the run.
//
// The duplicate-count statistic sums member counts per group without
// deduplicating records that belong to several groups. A record in two
// groups is counted twice. That overcount mirrors potential storage impact
// and is intentional; see DetectionStats.TotalDuplicates.
package engine
