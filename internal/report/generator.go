package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/internal/s2_signals"
	"github.com/wonny/cnquant/pkg/logger"
)

const (
	topSectors = 10
	minWorkers = 2
	maxWorkers = 8
)

// IndexProvider returns market index snapshots (nil codes = defaults)
type IndexProvider interface {
	GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error)
}

// SectorProvider ranks industry or concept boards by change
type SectorProvider interface {
	GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error)
}

// StockDetail is the per-symbol section of a research report
type StockDetail struct {
	Symbol    string                        `json:"symbol"`
	Board     string                        `json:"board"`
	Quote     *contracts.Quote              `json:"quote"`
	Technical contracts.TechnicalIndicators `json:"technical"`
	News      []contracts.NewsItem          `json:"news"`
}

// Report is the research data document
type Report struct {
	Timestamp    string                  `json:"timestamp"`
	Market       string                  `json:"market"`
	Symbols      []string                `json:"symbols"`
	Indices      []contracts.IndexQuote  `json:"indices"`
	SectorsTop10 []contracts.SectorQuote `json:"sectors_top10"`
	Stocks       map[string]StockDetail  `json:"stocks"`
	Errors       []string                `json:"errors"`
}

// Generator collects market context and per-symbol detail.
// Every collaborator failure is recorded in Report.Errors; nothing aborts the run.
type Generator struct {
	indices   IndexProvider
	sectors   SectorProvider
	quotes    contracts.QuoteProvider
	klines    contracts.KlineSource
	news      contracts.NewsSearcher
	calc      *s2_signals.TechnicalCalculator
	klineDays int
	newsLimit int
	logger    *logger.Logger
	now       func() time.Time
}

// NewGenerator creates a new report generator. news may be nil.
func NewGenerator(
	indices IndexProvider,
	sectors SectorProvider,
	quotes contracts.QuoteProvider,
	klines contracts.KlineSource,
	news contracts.NewsSearcher,
	klineDays, newsLimit int,
	log *logger.Logger,
) *Generator {
	if klineDays <= 0 {
		klineDays = s2_signals.DefaultKlineDays
	}
	return &Generator{
		indices:   indices,
		sectors:   sectors,
		quotes:    quotes,
		klines:    klines,
		news:      news,
		calc:      s2_signals.NewTechnicalCalculator(),
		klineDays: klineDays,
		newsLimit: newsLimit,
		logger:    log.WithField("module", "report"),
		now:       time.Now,
	}
}

// Generate builds the report for symbols
func (g *Generator) Generate(ctx context.Context, symbols []string) (*Report, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	startTime := g.now()
	report := &Report{
		Timestamp:    startTime.UTC().Format(contracts.TimestampLayout),
		Market:       "CN",
		Symbols:      symbols,
		Indices:      []contracts.IndexQuote{},
		SectorsTop10: []contracts.SectorQuote{},
		Stocks:       make(map[string]StockDetail, len(symbols)),
		Errors:       []string{},
	}

	var mu sync.Mutex
	addError := func(format string, args ...interface{}) {
		mu.Lock()
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	// 1. 시장 컨텍스트 (지수, 섹터, 일괄 시세) 병렬 수집
	var quotes map[string]contracts.Quote
	market, mctx := errgroup.WithContext(ctx)
	market.Go(func() error {
		indices, err := g.indices.GetIndexQuotes(mctx, nil)
		if err != nil {
			addError("indices: %v", err)
			return nil
		}
		report.Indices = indices
		return nil
	})
	market.Go(func() error {
		sectors, err := g.sectors.GetSectorRotation(mctx, sina.SectorIndustry, topSectors)
		if err != nil {
			addError("sectors: %v", err)
			return nil
		}
		if len(sectors) > topSectors {
			sectors = sectors[:topSectors]
		}
		report.SectorsTop10 = sectors
		return nil
	})
	market.Go(func() error {
		q, err := g.quotes.GetQuotes(mctx, symbols)
		if err != nil {
			addError("quotes: %v", err)
			return nil
		}
		quotes = q
		return nil
	})
	_ = market.Wait()

	// 2. 종목별 상세 (bounded pool)
	workers := len(symbols)
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	detail, dctx := errgroup.WithContext(ctx)
	detail.SetLimit(workers)
	for _, sym := range symbols {
		sym := sym
		detail.Go(func() error {
			d, err := g.fetchSymbol(dctx, sym, quotes)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sym, err))
				return nil
			}
			report.Stocks[sym] = d
			return nil
		})
	}
	_ = detail.Wait()

	sort.Strings(report.Errors)

	g.logger.WithFields(map[string]interface{}{
		"stocks":   len(report.Stocks),
		"errors":   len(report.Errors),
		"duration": g.now().Sub(startTime).Seconds(),
	}).Info("Report generated")

	return report, nil
}

// fetchSymbol never panics into the pool
func (g *Generator) fetchSymbol(ctx context.Context, sym string, quotes map[string]contracts.Quote) (d StockDetail, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	d = StockDetail{
		Symbol: sym,
		Board:  contracts.BoardOf(sym).Label(),
		News:   []contracts.NewsItem{},
	}
	if q, ok := quotes[sym]; ok {
		d.Quote = &q
	}

	points, err := g.klines.GetKline(ctx, sym, contracts.PeriodDaily, g.klineDays)
	if err != nil {
		return d, fmt.Errorf("kline: %w", err)
	}
	d.Technical = g.calc.Calculate(points)

	if g.news != nil && g.newsLimit > 0 {
		items, err := g.news.Search(ctx, sym, g.newsLimit)
		if err != nil {
			// 뉴스는 선택 사항
			g.logger.WithError(err).WithField("symbol", sym).Debug("News search failed")
		} else {
			d.News = items
		}
	}
	return d, nil
}
