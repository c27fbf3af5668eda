package s1_universe

import (
	"strings"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/strategyconfig"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

// HardFilter applies the exclusion rules in order.
// Rules are independent AND conditions; order only decides which counter a reject lands in.
type HardFilter struct {
	config strategyconfig.HardFilter
	logger *logger.Logger
}

// NewHardFilter creates a new hard filter
func NewHardFilter(config strategyconfig.HardFilter, log *logger.Logger) *HardFilter {
	return &HardFilter{
		config: config,
		logger: log.WithStage(contracts.StageHardFilter.String()),
	}
}

// Apply returns surviving rows as entries and per-rule rejection counts.
// Stats always carry "total" and "survivors" plus one key per rule.
func (f *HardFilter) Apply(rows []contracts.ListingRow) ([]contracts.UniverseEntry, contracts.FilterStats) {
	stats := contracts.FilterStats{
		"total":                   len(rows),
		contracts.RejectST:        0,
		contracts.RejectPrice:     0,
		contracts.RejectMktCap:    0,
		contracts.RejectPE:        0,
		contracts.RejectLiquidity: 0,
	}

	survivors := make([]contracts.UniverseEntry, 0, len(rows))
	for _, row := range rows {
		entry, reason := f.check(row)
		if reason != "" {
			stats[reason]++
			continue
		}
		survivors = append(survivors, entry)
	}
	stats["survivors"] = len(survivors)

	f.logger.WithFields(map[string]interface{}{
		"total":     len(rows),
		"survivors": len(survivors),
		"st":        stats[contracts.RejectST],
		"price":     stats[contracts.RejectPrice],
		"mktcap":    stats[contracts.RejectMktCap],
		"pe":        stats[contracts.RejectPE],
		"liquidity": stats[contracts.RejectLiquidity],
	}).Info("Hard filter applied")

	return survivors, stats
}

// check returns the normalized entry or the first rule the row breaks
func (f *HardFilter) check(row contracts.ListingRow) (contracts.UniverseEntry, string) {
	for _, marker := range f.config.NameMarkers {
		if marker != "" && strings.Contains(row.Name, marker) {
			return contracts.UniverseEntry{}, contracts.RejectST
		}
	}

	price := numutil.ParseFloat(row.Trade)
	if price == nil || *price < f.config.PriceMin {
		return contracts.UniverseEntry{}, contracts.RejectPrice
	}

	mktcap := numutil.ParseFloat(row.MktCap)
	if mktcap == nil || *mktcap < f.config.MarketCapMinWan {
		return contracts.UniverseEntry{}, contracts.RejectMktCap
	}

	pe := numutil.ParseFloat(row.PE)
	if f.config.RequirePositivePE && (pe == nil || *pe <= 0) {
		return contracts.UniverseEntry{}, contracts.RejectPE
	}

	// 거래대금 없음은 통과
	amount := numutil.ParseFloat(row.Amount)
	if amount != nil && *amount < f.config.AmountMin {
		return contracts.UniverseEntry{}, contracts.RejectLiquidity
	}

	return contracts.UniverseEntry{
		Code:         row.Code,
		Name:         row.Name,
		Price:        price,
		PE:           pe,
		PB:           numutil.ParseFloat(row.PB),
		MktCapWan:    mktcap,
		MktCapYi:     numutil.Ptr(numutil.Round(*mktcap/10000, 2)),
		Amount:       amount,
		TurnoverRate: numutil.ParseFloat(row.TurnoverRatio),
		ChangePct:    numutil.ParseFloat(row.ChangePercent),
		Board:        contracts.BoardOf(row.Code),
	}, ""
}
