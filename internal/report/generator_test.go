package report

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

type fakeIndices struct{ err error }

func (f fakeIndices) GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []contracts.IndexQuote{{Code: "sh000001", Name: "上证指数", Price: numutil.Ptr(3350.2)}}, nil
}

type fakeSectors struct{ n int }

func (f fakeSectors) GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error) {
	out := make([]contracts.SectorQuote, f.n)
	for i := range out {
		out[i] = contracts.SectorQuote{Name: string(rune('A' + i))}
	}
	return out, nil
}

type fakeQuotes struct{}

func (fakeQuotes) GetQuotes(ctx context.Context, codes []string) (map[string]contracts.Quote, error) {
	out := map[string]contracts.Quote{}
	for _, c := range codes {
		out[c] = contracts.Quote{Code: c, Price: numutil.Ptr(10)}
	}
	return out, nil
}

type fakeKlines struct {
	fail     map[string]bool
	inFlight int32
	peak     int32
}

func (f *fakeKlines) GetKline(ctx context.Context, code string, period contracts.KlinePeriod, days int) ([]contracts.PricePoint, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if f.fail[code] {
		return nil, errors.New("upstream 502")
	}
	points := make([]contracts.PricePoint, 30)
	for i := range points {
		points[i] = contracts.PricePoint{Close: numutil.Ptr(10 + float64(i))}
	}
	return points, nil
}

type fakeNews struct{}

func (fakeNews) Search(ctx context.Context, code string, limit int) ([]contracts.NewsItem, error) {
	if code == "000001" {
		return nil, errors.New("timeout")
	}
	return []contracts.NewsItem{{Title: code + " 公告"}}, nil
}

func TestGenerate(t *testing.T) {
	klines := &fakeKlines{fail: map[string]bool{"300750": true}}
	g := NewGenerator(fakeIndices{err: errors.New("403")}, fakeSectors{n: 15}, fakeQuotes{}, klines, fakeNews{}, 120, 3, logger.Nop())

	report, err := g.Generate(context.Background(), []string{"600519", "000001", "300750", "688981"})

	require.NoError(t, err)
	assert.Equal(t, "CN", report.Market)
	assert.Empty(t, report.Indices)
	assert.Len(t, report.SectorsTop10, 10)

	require.Len(t, report.Stocks, 3)
	moutai := report.Stocks["600519"]
	assert.Equal(t, "主板", moutai.Board)
	require.NotNil(t, moutai.Quote)
	assert.False(t, moutai.Technical.Empty())
	assert.Len(t, moutai.News, 1)

	assert.Empty(t, report.Stocks["000001"].News) // news failure is not an error
	assert.Equal(t, "科创板", report.Stocks["688981"].Board)

	assert.Equal(t, []string{"300750: kline: upstream 502", "indices: 403"}, report.Errors)
}

func TestGenerate_WorkerBound(t *testing.T) {
	symbols := make([]string, 20)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("6%05d", i)
	}
	klines := &fakeKlines{}
	g := NewGenerator(fakeIndices{}, fakeSectors{}, fakeQuotes{}, klines, nil, 0, 0, logger.Nop())

	report, err := g.Generate(context.Background(), symbols)

	require.NoError(t, err)
	assert.Len(t, report.Stocks, 20)
	assert.LessOrEqual(t, atomic.LoadInt32(&klines.peak), int32(maxWorkers))
}

func TestGenerate_NoSymbols(t *testing.T) {
	g := NewGenerator(fakeIndices{}, fakeSectors{}, fakeQuotes{}, &fakeKlines{}, nil, 0, 0, logger.Nop())
	_, err := g.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSymbols)
}
