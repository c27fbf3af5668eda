package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/cnquant/internal/contracts"
)

// ErrNoRuns is returned when no screen run has been stored
var ErrNoRuns = errors.New("no screen run found")

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS screen;

CREATE TABLE IF NOT EXISTS screen.runs (
	id              BIGSERIAL PRIMARY KEY,
	run_at          TIMESTAMPTZ NOT NULL,
	market          TEXT NOT NULL,
	strategy_hash   TEXT NOT NULL DEFAULT '',
	universe_size   INT NOT NULL,
	after_filter    INT NOT NULL,
	enriched        INT NOT NULL,
	top_n           INT NOT NULL,
	elapsed_seconds DOUBLE PRECISION NOT NULL,
	weights         JSONB NOT NULL,
	filter_stats    JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS screen.results (
	run_id     BIGINT NOT NULL REFERENCES screen.runs(id) ON DELETE CASCADE,
	rank       INT NOT NULL,
	code       TEXT NOT NULL,
	name       TEXT NOT NULL,
	board      TEXT NOT NULL,
	price      DOUBLE PRECISION,
	pe         DOUBLE PRECISION,
	pb         DOUBLE PRECISION,
	mktcap_yi  DOUBLE PRECISION,
	change_pct DOUBLE PRECISION,
	composite  DOUBLE PRECISION NOT NULL,
	scores     JSONB NOT NULL,
	tech       JSONB NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_screen_results_code ON screen.results (code);
`

// Repository stores screen run history
// ⭐ SSOT: 스크린 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the screen tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveScreenRun stores a report and its rows in one transaction and returns the run id
func (r *Repository) SaveScreenRun(ctx context.Context, report *contracts.ScreenReport, stats contracts.FilterStats, strategyHash string, runAt time.Time) (int64, error) {
	weightsJSON, err := json.Marshal(report.Weights)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal weights: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter stats: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO screen.runs (
			run_at, market, strategy_hash, universe_size, after_filter,
			enriched, top_n, elapsed_seconds, weights, filter_stats
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, runAt, report.Market, strategyHash, report.UniverseSize, report.AfterFilter,
		report.Enriched, report.TopN, report.ElapsedSeconds, weightsJSON, statsJSON,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert screen run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, res := range report.Results {
		scoresJSON, err := json.Marshal(res.Scores)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal scores: %w", err)
		}
		techJSON, err := json.Marshal(res.Tech)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal tech: %w", err)
		}
		batch.Queue(`
			INSERT INTO screen.results (
				run_id, rank, code, name, board, price, pe, pb,
				mktcap_yi, change_pct, composite, scores, tech
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, runID, res.Rank, res.Code, res.Name, res.Board, res.Price, res.PE, res.PB,
			res.MktCapYi, res.ChangePct, res.Composite, scoresJSON, techJSON)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert screen results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

// GetLatestRun loads the most recent report with its rows
func (r *Repository) GetLatestRun(ctx context.Context) (*contracts.ScreenReport, error) {
	var (
		runID       int64
		runAt       time.Time
		weightsJSON []byte
		report      contracts.ScreenReport
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, run_at, market, universe_size, after_filter, enriched,
		       top_n, elapsed_seconds, weights
		FROM screen.runs
		ORDER BY run_at DESC, id DESC
		LIMIT 1
	`).Scan(&runID, &runAt, &report.Market, &report.UniverseSize, &report.AfterFilter,
		&report.Enriched, &report.TopN, &report.ElapsedSeconds, &weightsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	report.Timestamp = runAt.UTC().Format(contracts.TimestampLayout)
	if err := json.Unmarshal(weightsJSON, &report.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rank, code, name, board, price, pe, pb, mktcap_yi,
		       change_pct, composite, scores, tech
		FROM screen.results
		WHERE run_id = $1
		ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query screen results: %w", err)
	}
	defer rows.Close()

	report.Results = make([]contracts.ScreenResult, 0)
	for rows.Next() {
		var (
			res        contracts.ScreenResult
			scoresJSON []byte
			techJSON   []byte
		)
		if err := rows.Scan(&res.Rank, &res.Code, &res.Name, &res.Board, &res.Price, &res.PE,
			&res.PB, &res.MktCapYi, &res.ChangePct, &res.Composite, &scoresJSON, &techJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal(scoresJSON, &res.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
		}
		if err := json.Unmarshal(techJSON, &res.Tech); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tech: %w", err)
		}
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &report, nil
}
