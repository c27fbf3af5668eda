package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/realtime"
	"github.com/wonny/cnquant/internal/realtime/cache"
	"github.com/wonny/cnquant/pkg/logger"
)

// DefaultPollInterval is used when a non-positive interval is configured
const DefaultPollInterval = 5 * time.Second

// Poller keeps the quote cache fresh for every tracked symbol
// ⭐ SSOT: 실시간 시세 폴링은 이 피드에서만
type Poller struct {
	provider contracts.QuoteProvider
	cache    *cache.QuoteCache
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time

	// 구독 참조 카운트 (code → 구독자 수)
	symbols   map[string]int
	symbolsMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new quote poller
func NewPoller(provider contracts.QuoteProvider, quoteCache *cache.QuoteCache, interval time.Duration, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		provider: provider,
		cache:    quoteCache,
		interval: interval,
		logger:   log,
		now:      time.Now,
		symbols:  make(map[string]int),
	}
}

// Cache returns the cache the poller writes to
func (p *Poller) Cache() *cache.QuoteCache {
	return p.cache
}

// Start starts the polling loop
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.pollLoop(ctx)

	p.logger.WithField("interval", p.interval).Info("Started quote poller")
}

// Stop stops the polling loop and waits for it to exit
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Quote poller stopped")
}

// Track adds one reference for each code
func (p *Poller) Track(codes []string) {
	p.symbolsMu.Lock()
	defer p.symbolsMu.Unlock()

	for _, code := range codes {
		p.symbols[code]++
	}
}

// Untrack drops one reference for each code; symbols with no references stop polling
func (p *Poller) Untrack(codes []string) {
	p.symbolsMu.Lock()
	defer p.symbolsMu.Unlock()

	for _, code := range codes {
		if p.symbols[code] <= 1 {
			delete(p.symbols, code)
			continue
		}
		p.symbols[code]--
	}
}

// Tracked returns the tracked symbols, sorted
func (p *Poller) Tracked() []string {
	p.symbolsMu.Lock()
	codes := make([]string, 0, len(p.symbols))
	for code := range p.symbols {
		codes = append(codes, code)
	}
	p.symbolsMu.Unlock()

	sort.Strings(codes)
	return codes
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if codes := p.Tracked(); len(codes) > 0 {
				if _, err := p.Refresh(ctx, codes); err != nil && ctx.Err() == nil {
					p.logger.WithError(err).Debug("Quote poll failed")
				}
			}
		}
	}
}

// Refresh fetches codes now and writes them to the cache. Returns the number accepted.
func (p *Poller) Refresh(ctx context.Context, codes []string) (int, error) {
	quotes, err := p.provider.GetQuotes(ctx, codes)
	if err != nil {
		return 0, err
	}

	receivedAt := p.now()
	accepted := 0
	for code, q := range quotes {
		if p.cache.Update(realtime.QuoteTick{Code: code, Quote: q, ReceivedAt: receivedAt}) {
			accepted++
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"received":  len(quotes),
		"accepted":  accepted,
	}).Debug("Completed quote poll")

	return accepted, nil
}

// Snapshot returns the cached view of codes
func (p *Poller) Snapshot(codes []string) realtime.Snapshot {
	quotes, missing := p.cache.GetMany(codes)
	return realtime.Snapshot{
		Timestamp: p.now(),
		Quotes:    quotes,
		Missing:   missing,
	}
}
