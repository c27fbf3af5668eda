package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/logger"
)

const (
	DefaultWorkers   = 6
	DefaultKlineDays = 120
)

// ErrInsufficientHistory marks a fetch that returned too few bars for indicators
var ErrInsufficientHistory = errors.New("insufficient price history")

// EnrichResult is the outcome for one submitted entry
type EnrichResult struct {
	Code string
	Tech contracts.TechnicalIndicators
	Err  error
}

// Enricher fetches daily history for candidates and computes indicators
// ⭐ SSOT: S2 후보 종목 기술적 지표 보강
type Enricher struct {
	source  contracts.KlineSource
	calc    *TechnicalCalculator
	logger  *logger.Logger
	workers int
	days    int
}

// NewEnricher creates an enricher. workers/days <= 0 fall back to defaults.
func NewEnricher(source contracts.KlineSource, workers, days int, log *logger.Logger) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if days <= 0 {
		days = DefaultKlineDays
	}
	return &Enricher{
		source:  source,
		calc:    NewTechnicalCalculator(),
		logger:  log.WithField("module", "enricher"),
		workers: workers,
		days:    days,
	}
}

type enrichJob struct {
	index int
	code  string
}

type indexedResult struct {
	index  int
	result EnrichResult
}

// Enrich runs at most e.workers fetches at once and returns exactly one
// result per entry, in input order. Fetch failures, empty histories and
// panics become a result with Err set; cancellation fails the remainder.
func (e *Enricher) Enrich(ctx context.Context, entries []contracts.UniverseEntry) []EnrichResult {
	results := make([]EnrichResult, len(entries))
	if len(entries) == 0 {
		return results
	}

	e.logger.WithFields(map[string]interface{}{
		"candidates": len(entries),
		"workers":    e.workers,
		"days":       e.days,
	}).Info("Starting enrichment")

	jobCh := make(chan enrichJob, len(entries))
	resultCh := make(chan indexedResult, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- indexedResult{index: job.index, result: e.enrichOne(ctx, workerID, job.code)}
			}
		}(i)
	}

	for i, entry := range entries {
		jobCh <- enrichJob{index: i, code: entry.Code}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	failed := 0
	for r := range resultCh {
		results[r.index] = r.result
		if r.result.Err != nil {
			failed++
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"success": len(entries) - failed,
		"failed":  failed,
	}).Info("Enrichment completed")

	return results
}

// enrichOne never panics and never drops the entry
func (e *Enricher) enrichOne(ctx context.Context, workerID int, code string) (res EnrichResult) {
	res.Code = code

	defer func() {
		if r := recover(); r != nil {
			res.Tech = contracts.TechnicalIndicators{}
			res.Err = fmt.Errorf("enrich %s: panic: %v", code, r)
			e.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   code,
			}).Error("Recovered panic during enrichment")
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	points, err := e.source.GetKline(ctx, code, contracts.PeriodDaily, e.days)
	if err != nil {
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"worker": workerID,
			"code":   code,
		}).Debug("Failed to fetch kline")
		res.Err = fmt.Errorf("kline %s: %w", code, err)
		return res
	}

	res.Tech = e.calc.Calculate(points)
	if res.Tech.Empty() {
		res.Err = fmt.Errorf("kline %s: %w", code, ErrInsufficientHistory)
	}
	return res
}
