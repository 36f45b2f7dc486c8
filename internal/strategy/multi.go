package strategy

import (
	"go.uber.org/zap"

	"dupescan/internal/types"
)

// Multi chains strategies in a fixed priority order and returns the first
// positive match. The order is exact, then fuzzy and content-hash, then
// title similarity, then size. This is first-match-wins by design: a pair
// that matches exactly is never relabeled by a later, weaker strategy, and
// reordering the chain would change the confidence a given pair receives.
type Multi struct {
	logger     *zap.Logger
	strategies []Strategy
}

// NewMulti builds the composite with the canonical strategy order.
func NewMulti(logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{
		logger: logger,
		strategies: []Strategy{
			Exact{},
			Fuzzy{},
			ContentHash{},
			Title{},
			Size{},
		},
	}
}

func (m *Multi) Name() string { return "multi" }

// Match tries each strategy in order. A strategy error does not abort the
// chain; the failing strategy is skipped and logged, and the remaining
// strategies still run.
func (m *Multi) Match(candidate *types.FileRecord, corpus []types.FileRecord, cfg Config) (*types.MatchResult, error) {
	for _, s := range m.strategies {
		result, err := s.Match(candidate, corpus, cfg)
		if err != nil {
			m.logger.Warn("strategy failed, skipping",
				zap.String("strategy", s.Name()),
				zap.String("candidate", candidate.ID),
				zap.Error(err))
			continue
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}
