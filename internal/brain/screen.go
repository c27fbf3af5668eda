package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s0_data/quality"
	"github.com/wonny/cnquant/internal/s1_universe"
	"github.com/wonny/cnquant/internal/s2_signals"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

// ErrNoSurvivors is returned when the hard filter rejects every row
var ErrNoSurvivors = errors.New("no rows survived the hard filter")

// RunRecorder persists finished runs. Optional.
type RunRecorder interface {
	SaveScreenRun(ctx context.Context, report *contracts.ScreenReport, stats contracts.FilterStats, strategyHash string, runAt time.Time) (int64, error)
}

// ScreenOrchestrator runs the full-market screen
// universe → hard_filter → prelim_score → select → enrich → final_score → emit
// ⭐ SSOT: 스크린 파이프라인 조율은 여기서만
type ScreenOrchestrator struct {
	universeBuilder *s1_universe.Builder
	qualityGate     *quality.Gate
	hardFilter      *s1_universe.HardFilter
	scorer          *selection.Scorer
	enricher        *s2_signals.Enricher
	ranker          *selection.Ranker
	recorder        RunRecorder
	strategyHash    string

	logger *logger.Logger
	now    func() time.Time
}

// RunConfig holds configuration for a screen run
type RunConfig struct {
	TopN       int
	EnrichTopK int
	Output     string // empty skips the JSON file
	Sector     string // accepted for compatibility; not applied
}

// RunResult holds everything a run produced
type RunResult struct {
	Report      *contracts.ScreenReport
	FilterStats contracts.FilterStats
	Quality     *quality.Snapshot
	Stages      []contracts.StageResult
	OutputPath  string
	RunID       int64
}

// NewScreenOrchestrator creates a new screen orchestrator. recorder may be nil.
func NewScreenOrchestrator(
	universeBuilder *s1_universe.Builder,
	qualityGate *quality.Gate,
	hardFilter *s1_universe.HardFilter,
	scorer *selection.Scorer,
	enricher *s2_signals.Enricher,
	ranker *selection.Ranker,
	recorder RunRecorder,
	strategyHash string,
	log *logger.Logger,
) *ScreenOrchestrator {
	return &ScreenOrchestrator{
		universeBuilder: universeBuilder,
		qualityGate:     qualityGate,
		hardFilter:      hardFilter,
		scorer:          scorer,
		enricher:        enricher,
		ranker:          ranker,
		recorder:        recorder,
		strategyHash:    strategyHash,
		logger:          log.WithField("module", "screen"),
		now:             time.Now,
	}
}

// Run executes every stage in order. Each stage is fully materialized
// before the next starts. An empty universe or zero survivors ends the
// run without writing output; per-entry failures are absorbed.
func (o *ScreenOrchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := o.now()
	result := &RunResult{Stages: make([]contracts.StageResult, 0, len(contracts.AllStages()))}

	if cfg.TopN <= 0 {
		cfg.TopN = 50
	}
	if cfg.EnrichTopK <= 0 {
		cfg.EnrichTopK = 200
	}
	if cfg.Sector != "" {
		o.logger.WithField("sector", cfg.Sector).Warn("Sector filter is not supported, ignoring")
	}

	o.logger.WithFields(map[string]interface{}{
		"top_n":       cfg.TopN,
		"enrich_topk": cfg.EnrichTopK,
		"output":      cfg.Output,
	}).Info("Starting screen run")

	// 1. Universe
	stageStart := o.now()
	rows, err := o.universeBuilder.Build(ctx)
	result.Stages = append(result.Stages, o.stage(contracts.StageUniverse, 0, len(rows), stageStart, err))
	if err != nil {
		return result, fmt.Errorf("%s failed: %w", contracts.StageUniverse, err)
	}

	result.Quality = o.qualityGate.Check(rows)
	if !result.Quality.Passed {
		o.logger.WithFields(map[string]interface{}{
			"score":    result.Quality.QualityScore,
			"failures": result.Quality.Failures,
		}).Warn("Listing coverage below thresholds")
	}

	// 2. Hard filter
	stageStart = o.now()
	survivors, stats := o.hardFilter.Apply(rows)
	result.FilterStats = stats
	if len(survivors) == 0 {
		result.Stages = append(result.Stages, o.stage(contracts.StageHardFilter, len(rows), 0, stageStart, ErrNoSurvivors))
		return result, ErrNoSurvivors
	}
	result.Stages = append(result.Stages, o.stage(contracts.StageHardFilter, len(rows), len(survivors), stageStart, nil))

	// 3. Preliminary score (no technicals yet)
	stageStart = o.now()
	for i := range survivors {
		survivors[i].Scores = o.scorer.Score(survivors[i])
	}
	result.Stages = append(result.Stages, o.stage(contracts.StagePrelimScore, len(survivors), len(survivors), stageStart, nil))

	// 4. Select top K
	stageStart = o.now()
	candidates := selection.TopK(survivors, cfg.EnrichTopK)
	candidates = append([]contracts.UniverseEntry(nil), candidates...)
	result.Stages = append(result.Stages, o.stage(contracts.StageSelect, len(survivors), len(candidates), stageStart, nil))

	// 5. Enrich
	stageStart = o.now()
	enriched := o.enricher.Enrich(ctx, candidates)
	succeeded := 0
	for i, r := range enriched {
		candidates[i].Tech = r.Tech
		if r.Err != nil {
			candidates[i].EnrichError = r.Err.Error()
			continue
		}
		succeeded++
	}
	// 중단된 실행은 버림: 기존 결과 파일을 덮어쓰지 않음
	if err := ctx.Err(); err != nil {
		result.Stages = append(result.Stages, o.stage(contracts.StageEnrich, len(candidates), succeeded, stageStart, err))
		return result, fmt.Errorf("%s failed: %w", contracts.StageEnrich, err)
	}
	result.Stages = append(result.Stages, o.stage(contracts.StageEnrich, len(candidates), succeeded, stageStart, nil))

	// 6. Final score and rank
	stageStart = o.now()
	for i := range candidates {
		candidates[i].Scores = o.scorer.Score(candidates[i])
	}
	ranked := o.ranker.Rank(candidates, cfg.TopN)
	result.Stages = append(result.Stages, o.stage(contracts.StageFinalScore, len(candidates), len(ranked), stageStart, nil))

	// 7. Emit
	stageStart = o.now()
	report := &contracts.ScreenReport{
		Timestamp:      startTime.UTC().Format(contracts.TimestampLayout),
		Market:         "CN",
		UniverseSize:   len(rows),
		AfterFilter:    len(survivors),
		Enriched:       len(candidates),
		TopN:           cfg.TopN,
		ElapsedSeconds: numutil.Round(o.now().Sub(startTime).Seconds(), 1),
		Weights:        o.scorer.Weights(),
		Results:        ranked,
	}
	result.Report = report

	if cfg.Output != "" {
		if err := WriteJSON(cfg.Output, report); err != nil {
			result.Stages = append(result.Stages, o.stage(contracts.StageEmit, len(ranked), 0, stageStart, err))
			return result, fmt.Errorf("%s failed: %w", contracts.StageEmit, err)
		}
		result.OutputPath = cfg.Output
	}

	if o.recorder != nil {
		runID, err := o.recorder.SaveScreenRun(ctx, report, stats, o.strategyHash, startTime)
		if err != nil {
			o.logger.WithError(err).Warn("Failed to record screen run")
		} else {
			result.RunID = runID
		}
	}
	result.Stages = append(result.Stages, o.stage(contracts.StageEmit, len(ranked), len(ranked), stageStart, nil))

	o.logger.WithFields(map[string]interface{}{
		"universe":     report.UniverseSize,
		"after_filter": report.AfterFilter,
		"enriched":     succeeded,
		"results":      len(report.Results),
		"elapsed":      report.ElapsedSeconds,
		"output":       result.OutputPath,
	}).Info("Screen run completed")

	return result, nil
}

func (o *ScreenOrchestrator) stage(stage contracts.Stage, in, out int, start time.Time, err error) contracts.StageResult {
	sr := contracts.StageResult{
		Stage:       stage,
		InputCount:  in,
		OutputCount: out,
		Duration:    o.now().Sub(start).Milliseconds(),
	}
	log := o.logger.WithStage(stage.String()).WithFields(map[string]interface{}{
		"input":  in,
		"output": out,
	})
	if err != nil {
		sr.Error = err.Error()
		log.WithError(err).Error(stage.Description())
		return sr
	}
	log.Info(stage.Description())
	return sr
}
