package selection

import (
	"sort"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/logger"
)

// Ranker orders scored entries and builds report rows
// ⭐ SSOT: 랭킹/정렬 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// SortByComposite sorts in place, highest composite first. Ties keep input order.
func SortByComposite(entries []contracts.UniverseEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Scores.Composite > entries[j].Scores.Composite
	})
}

// TopK returns the first k entries after sorting (all when k <= 0 or k >= len)
func TopK(entries []contracts.UniverseEntry, k int) []contracts.UniverseEntry {
	SortByComposite(entries)
	if k <= 0 || k >= len(entries) {
		return entries
	}
	return entries[:k]
}

// Rank sorts entries and returns at most topN report rows with 1-based ranks
func (r *Ranker) Rank(entries []contracts.UniverseEntry, topN int) []contracts.ScreenResult {
	top := TopK(entries, topN)

	results := make([]contracts.ScreenResult, len(top))
	for i, e := range top {
		results[i] = contracts.ScreenResult{
			Rank:      i + 1,
			Code:      e.Code,
			Name:      e.Name,
			Price:     e.Price,
			PE:        e.PE,
			PB:        e.PB,
			MktCapYi:  e.MktCapYi,
			ChangePct: e.ChangePct,
			Board:     e.Board.Label(),
			Composite: e.Scores.Composite,
			Scores:    e.Scores.Factors(),
			Tech:      e.Tech.Summary(),
		}
	}

	if len(results) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"ranked":    len(results),
			"top_code":  results[0].Code,
			"top_score": results[0].Composite,
		}).Info("Ranking completed")
	}
	return results
}
