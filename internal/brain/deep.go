package brain

import (
	"context"
	"fmt"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/logger"
)

// deepNewsLimit caps the headline lookup; the catalyst factor only tells 0 from 3+
const deepNewsLimit = 10

// OverviewGetter builds a quote + technical overview for one symbol
type OverviewGetter interface {
	Get(ctx context.Context, code string) (*s0_data.Overview, error)
}

// DeepReport is the six-factor research score of one stock
type DeepReport struct {
	Code    string                `json:"code"`
	Name    string                `json:"name,omitempty"`
	Board   string                `json:"board"`
	Inputs  selection.DeepInputs  `json:"inputs"`
	Scores  contracts.DeepScores  `json:"scores"`
	Weights contracts.DeepWeights `json:"weights"`
	Errors  []string              `json:"errors,omitempty"`
}

// DeepAnalyzer fills the technical and news inputs of a deep score from
// live data. Fundamentals, flows, events and sentiment come from the caller.
type DeepAnalyzer struct {
	overview OverviewGetter
	news     contracts.NewsSearcher // nil = caller supplied count
	scorer   *selection.DeepScorer
	weights  contracts.DeepWeights
	logger   *logger.Logger
}

// NewDeepAnalyzer creates a new deep analyzer. news may be nil.
func NewDeepAnalyzer(overview OverviewGetter, news contracts.NewsSearcher, weights contracts.DeepWeights, log *logger.Logger) *DeepAnalyzer {
	return &DeepAnalyzer{
		overview: overview,
		news:     news,
		scorer:   selection.NewDeepScorer(weights),
		weights:  weights,
		logger:   log.WithField("module", "deep_score"),
	}
}

// Analyze scores code. RSI14, VsMA20Pct and NewsCount in inputs are
// replaced by live values when they can be fetched.
func (a *DeepAnalyzer) Analyze(ctx context.Context, code string, inputs selection.DeepInputs) (*DeepReport, error) {
	symbol := contracts.ParseSymbol(code)
	report := &DeepReport{Code: symbol.Code, Board: symbol.Board.Label()}

	ov, err := a.overview.Get(ctx, symbol.Code)
	if err != nil {
		return nil, fmt.Errorf("deep score %s: %w", symbol.Code, err)
	}
	if ov.Quote != nil {
		report.Name = ov.Quote.Name
	}
	report.Errors = append(report.Errors, ov.Errors...)
	if ov.Technical.RSI14 != nil {
		inputs.RSI14 = ov.Technical.RSI14
	}
	if ov.Technical.VsMA20Pct != nil {
		inputs.VsMA20Pct = ov.Technical.VsMA20Pct
	}

	if a.news != nil {
		items, err := a.news.Search(ctx, symbol.Code, deepNewsLimit)
		if err != nil {
			a.logger.WithError(err).WithField("code", symbol.Code).Warn("News lookup failed, keeping supplied count")
			report.Errors = append(report.Errors, fmt.Sprintf("news: %v", err))
		} else {
			inputs.NewsCount = len(items)
		}
	}

	report.Inputs = inputs
	report.Scores = a.scorer.Score(inputs)
	report.Weights = a.weights

	a.logger.WithFields(map[string]interface{}{
		"code":      symbol.Code,
		"composite": report.Scores.Composite,
		"news":      inputs.NewsCount,
	}).Info("Deep score computed")

	return report, nil
}
