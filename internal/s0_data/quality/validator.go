package quality

import (
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

// Snapshot summarizes field coverage of one listing pull
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalRows    int                `json:"total_rows"`
	ValidRows    int                `json:"valid_rows"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}

// Config holds coverage thresholds
type Config struct {
	MinPriceCoverage     float64 `yaml:"min_price_coverage"`
	MinMarketCapCoverage float64 `yaml:"min_market_cap_coverage"`
	MinPECoverage        float64 `yaml:"min_pe_coverage"`
	MinAmountCoverage    float64 `yaml:"min_amount_coverage"`
}

// DefaultConfig tolerates suspended names and loss makers
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:     0.90,
		MinMarketCapCoverage: 0.90,
		MinPECoverage:        0.50,
		MinAmountCoverage:    0.80,
	}
}

// 가중치 (합계 = 1.0)
var coverageWeights = map[string]float64{
	"price":      0.35,
	"market_cap": 0.25,
	"pe":         0.15,
	"pb":         0.10,
	"amount":     0.15,
}

// Gate checks that a listing is complete enough to screen
// ⭐ SSOT: S0 → S1 품질 검증
type Gate struct {
	config Config
	now    func() time.Time
}

// NewGate creates a new quality gate
func NewGate(config Config) *Gate {
	return &Gate{config: config, now: time.Now}
}

// Check measures per-field coverage. A row is valid when price and
// market cap both parse. The gate never rejects rows; it only reports.
func (g *Gate) Check(rows []contracts.ListingRow) *Snapshot {
	snapshot := &Snapshot{
		Date:      g.now(),
		TotalRows: len(rows),
		Coverage:  make(map[string]float64, len(coverageWeights)),
	}
	if len(rows) == 0 {
		snapshot.Failures = []string{"empty listing"}
		return snapshot
	}

	counts := make(map[string]int, len(coverageWeights))
	for _, row := range rows {
		price := numutil.ParseFloat(row.Trade)
		mktcap := numutil.ParseFloat(row.MktCap)
		if price != nil {
			counts["price"]++
		}
		if mktcap != nil {
			counts["market_cap"]++
		}
		if numutil.ParseFloat(row.PE) != nil {
			counts["pe"]++
		}
		if numutil.ParseFloat(row.PB) != nil {
			counts["pb"]++
		}
		if numutil.ParseFloat(row.Amount) != nil {
			counts["amount"]++
		}
		if price != nil && mktcap != nil {
			snapshot.ValidRows++
		}
	}

	total := float64(len(rows))
	for key := range coverageWeights {
		snapshot.Coverage[key] = numutil.Round(float64(counts[key])/total, 4)
	}
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)

	g.checkThreshold(snapshot, "price", g.config.MinPriceCoverage)
	g.checkThreshold(snapshot, "market_cap", g.config.MinMarketCapCoverage)
	g.checkThreshold(snapshot, "pe", g.config.MinPECoverage)
	g.checkThreshold(snapshot, "amount", g.config.MinAmountCoverage)
	snapshot.Passed = len(snapshot.Failures) == 0

	return snapshot
}

func (g *Gate) checkThreshold(s *Snapshot, key string, min float64) {
	if s.Coverage[key] < min {
		s.Failures = append(s.Failures, key)
	}
}

// calculateScore is the weighted average of coverage
func (g *Gate) calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for key, weight := range coverageWeights {
		score += coverage[key] * weight
	}
	return numutil.Round(score, 4)
}
