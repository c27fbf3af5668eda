package contracts

import "context"

// Stage collaborators
// ⭐ SSOT: 외부 데이터 소스 인터페이스

// QuoteProvider returns best-effort quotes keyed by raw code.
// Missing symbols are absent from the map; only a total failure is an error.
type QuoteProvider interface {
	GetQuotes(ctx context.Context, codes []string) (map[string]Quote, error)
}

// ListingSource pages through the full-market listing
type ListingSource interface {
	ListingCount(ctx context.Context) (int, error)
	ListingPage(ctx context.Context, page, size int) ([]ListingRow, error)
}

// KlineSource fetches chronological price history
type KlineSource interface {
	GetKline(ctx context.Context, code string, period KlinePeriod, days int) ([]PricePoint, error)
}

// NewsSearcher returns up to limit headlines for a symbol
type NewsSearcher interface {
	Search(ctx context.Context, code string, limit int) ([]NewsItem, error)
}
