package s1_universe

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/logger"
)

// ErrEmptyUniverse is returned when no listing row could be retrieved
var ErrEmptyUniverse = errors.New("universe is empty")

// Config holds paging parameters
type Config struct {
	MaxPages      int           // 최대 페이지 수
	PageSize      int           // 페이지당 행 수
	PauseEvery    int           // N 페이지마다 대기
	Pause         time.Duration // 대기 시간
	FallbackTotal int           // 종목 수 조회 실패 시 추정치
}

// DefaultConfig matches the listing API's limits
func DefaultConfig() Config {
	return Config{
		MaxPages:      80,
		PageSize:      80,
		PauseEvery:    10,
		Pause:         300 * time.Millisecond,
		FallbackTotal: 5500,
	}
}

// Builder pages through the full-market listing
type Builder struct {
	source contracts.ListingSource
	config Config
	logger *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewBuilder creates a new Universe Builder
func NewBuilder(source contracts.ListingSource, config Config, log *logger.Logger) *Builder {
	def := DefaultConfig()
	if config.PageSize <= 0 {
		config.PageSize = def.PageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = def.MaxPages
	}
	if config.FallbackTotal <= 0 {
		config.FallbackTotal = def.FallbackTotal
	}
	return &Builder{
		source: source,
		config: config,
		logger: log.WithStage(contracts.StageUniverse.String()),
		sleep:  sleepCtx,
	}
}

// Build returns raw listing rows as delivered, in page order.
// ⭐ SSOT: S1 유니버스 생성
func (b *Builder) Build(ctx context.Context) ([]contracts.ListingRow, error) {
	total, err := b.source.ListingCount(ctx)
	if err != nil || total <= 0 {
		b.logger.WithFields(map[string]interface{}{
			"fallback": b.config.FallbackTotal,
			"error":    errString(err),
		}).Warn("Listing count unavailable, using estimate")
		total = b.config.FallbackTotal
	}

	pages := (total + b.config.PageSize - 1) / b.config.PageSize
	if pages > b.config.MaxPages {
		pages = b.config.MaxPages
	}

	rows := make([]contracts.ListingRow, 0, pages*b.config.PageSize)
	for page := 1; page <= pages; page++ {
		batch, err := b.source.ListingPage(ctx, page, b.config.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.WithError(err).WithField("page", page).Warn("Listing page failed, stopping")
			break
		}
		if len(batch) == 0 {
			b.logger.WithField("page", page).Debug("Empty listing page, stopping")
			break
		}
		rows = append(rows, batch...)

		if len(batch) < b.config.PageSize {
			break
		}
		if b.config.PauseEvery > 0 && page%b.config.PauseEvery == 0 && page < pages {
			if err := b.sleep(ctx, b.config.Pause); err != nil {
				return nil, err
			}
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"estimated": total,
		"rows":      len(rows),
	}).Info("Universe built")

	if len(rows) == 0 {
		return nil, ErrEmptyUniverse
	}
	return rows, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
