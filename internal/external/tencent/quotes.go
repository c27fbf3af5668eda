package tencent

import (
	"context"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/httputil"
	"github.com/wonny/cnquant/pkg/numutil"
)

// fieldMapping maps a tilde position onto a Quote field
type fieldMapping struct {
	position int
	target   func(q *contracts.Quote) **float64
}

func (m fieldMapping) value(fields []string) *float64 {
	if m.position >= len(fields) {
		return nil
	}
	return numutil.ParseFloat(fields[m.position])
}

var quoteFields = []fieldMapping{
	{3, func(q *contracts.Quote) **float64 { return &q.Price }},
	{4, func(q *contracts.Quote) **float64 { return &q.PrevClose }},
	{5, func(q *contracts.Quote) **float64 { return &q.Open }},
	{6, func(q *contracts.Quote) **float64 { return &q.Volume }},  // 手
	{37, func(q *contracts.Quote) **float64 { return &q.Amount }}, // 万元
	// 50+ 필드 레코드의 당일 고가/저가는 33/34 (41/42는 구버전 레이아웃)
	{33, func(q *contracts.Quote) **float64 { return &q.High }},
	{34, func(q *contracts.Quote) **float64 { return &q.Low }},
	{32, func(q *contracts.Quote) **float64 { return &q.ChangePct }},
	{39, func(q *contracts.Quote) **float64 { return &q.PE }},
	{46, func(q *contracts.Quote) **float64 { return &q.PB }},
	{45, func(q *contracts.Quote) **float64 { return &q.MarketCap }},      // 亿
	{44, func(q *contracts.Quote) **float64 { return &q.FloatMarketCap }}, // 亿
	{38, func(q *contracts.Quote) **float64 { return &q.TurnoverRate }},
	{43, func(q *contracts.Quote) **float64 { return &q.Amplitude }},
}

// GetQuotes fetches quotes with valuation fields in batches of 50.
// Failed batches are logged and skipped.
func (c *Client) GetQuotes(ctx context.Context, codes []string) (map[string]contracts.Quote, error) {
	result := make(map[string]contracts.Quote)
	if len(codes) == 0 {
		return result, nil
	}

	qualified := make([]string, len(codes))
	for i, code := range codes {
		qualified[i] = contracts.Qualify(code)
	}

	var lastErr error
	for _, batch := range httputil.Batch(qualified, QuoteBatchSize) {
		records, err := c.fetchRecords(ctx, batch)
		if err != nil {
			c.logger.WithError(err).WithField("batch_size", len(batch)).Warn("Tencent quote batch failed")
			lastErr = err
			continue
		}
		for _, fields := range records {
			if q, ok := parseQuote(fields); ok {
				result[q.Code] = q
			}
		}
	}

	if lastErr != nil && len(result) == 0 {
		return result, lastErr
	}
	return result, nil
}

func parseQuote(fields []string) (contracts.Quote, bool) {
	if len(fields) < quoteMinFields {
		return contracts.Quote{}, false
	}

	q := contracts.Quote{
		Code:   fields[2],
		Name:   fields[1],
		Source: contracts.SourceTencent,
	}
	for _, f := range quoteFields {
		*f.target(&q) = f.value(fields)
	}
	return q, true
}

// GetIndexQuotes fetches index snapshots in the order requested.
// Nil codes means DefaultIndices.
func (c *Client) GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error) {
	if codes == nil {
		codes = DefaultIndices
	}

	records, err := c.fetchRecords(ctx, codes)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]contracts.IndexQuote)
	for _, fields := range records {
		if len(fields) < indexMinFields {
			continue
		}
		byCode[fields[2]] = contracts.IndexQuote{
			Code:      fields[2],
			Name:      fields[1],
			Price:     numutil.ParseFloat(fields[3]),
			ChangePct: numutil.ParseFloat(fields[32]),
			Amount:    numutil.ParseFloat(at(fields, 37)),
		}
	}

	indices := make([]contracts.IndexQuote, 0, len(codes))
	for _, qualified := range codes {
		code := qualified
		if len(code) > 2 {
			code = code[2:]
		}
		if idx, ok := byCode[code]; ok {
			indices = append(indices, idx)
		}
	}
	return indices, nil
}

func at(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
