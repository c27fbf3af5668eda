package realtime

import (
	"time"

	"github.com/wonny/cnquant/internal/contracts"
)

// QuoteTick is one polled quote as held by the stream cache
// ⭐ SSOT: 실시간 시세 데이터 구조
type QuoteTick struct {
	Code       string          `json:"code"`
	Quote      contracts.Quote `json:"quote"`
	ReceivedAt time.Time       `json:"received_at"`
	IsStale    bool            `json:"is_stale"` // 오래된 데이터 여부
}

// SourcePriority returns priority for a quote source (higher = better)
func SourcePriority(s contracts.QuoteSource) int {
	switch s {
	case contracts.SourceTencent:
		return 2
	case contracts.SourceSina:
		return 1
	default:
		return 0
	}
}

// Snapshot is the payload pushed to stream clients
type Snapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Quotes    []QuoteTick `json:"quotes"`
	Missing   []string    `json:"missing,omitempty"`
}
