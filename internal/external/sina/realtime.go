package sina

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/httputil"
	"github.com/wonny/cnquant/pkg/numutil"
)

// var hq_str_sh600519="贵州茅台,1466.000,1455.020,...";
var hqLineRe = regexp.MustCompile(`var hq_str_(\w+)="(.+)"`)

const hqMinFields = 32

type fieldMapping struct {
	index  int
	target func(q *contracts.Quote) **float64
}

// hqFields maps comma positions onto Quote fields
var hqFields = []fieldMapping{
	{1, func(q *contracts.Quote) **float64 { return &q.Open }},
	{2, func(q *contracts.Quote) **float64 { return &q.PrevClose }},
	{3, func(q *contracts.Quote) **float64 { return &q.Price }},
	{4, func(q *contracts.Quote) **float64 { return &q.High }},
	{5, func(q *contracts.Quote) **float64 { return &q.Low }},
	{8, func(q *contracts.Quote) **float64 { return &q.Volume }}, // 股
	{9, func(q *contracts.Quote) **float64 { return &q.Amount }}, // 元
}

// GetQuotes fetches realtime quotes in batches of 50.
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
	failed := 0
	for _, batch := range httputil.Batch(qualified, QuoteBatchSize) {
		u := fmt.Sprintf("%s/list=%s", c.cfg.HQURL, strings.Join(batch, ","))
		text, err := c.fetch(ctx, u, "utf-8")
		if err != nil {
			c.logger.WithError(err).WithField("batch_size", len(batch)).Warn("Sina quote batch failed")
			lastErr = err
			failed++
			continue
		}
		for code, q := range parseHQ(text) {
			result[code] = q
		}
	}

	if failed > 0 && len(result) == 0 {
		return result, lastErr
	}
	return result, nil
}

// parseHQ parses hq.sinajs.cn lines; short or malformed records are skipped
func parseHQ(text string) map[string]contracts.Quote {
	result := make(map[string]contracts.Quote)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") {
			continue
		}
		m := hqLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields := strings.Split(m[2], ",")
		if len(fields) < hqMinFields {
			continue
		}

		code := m[1]
		if len(code) > 2 {
			code = code[2:] // strip sh/sz
		}

		q := contracts.Quote{
			Code:   code,
			Name:   fields[0],
			Date:   fields[30],
			Time:   fields[31],
			Source: contracts.SourceSina,
		}
		for _, f := range hqFields {
			*f.target(&q) = numutil.ParseFloat(fields[f.index])
		}
		if q.Price != nil && q.PrevClose != nil && *q.PrevClose > 0 {
			q.ChangePct = numutil.Ptr(numutil.Round((*q.Price-*q.PrevClose) / *q.PrevClose * 100, 2))
		}

		result[code] = q
	}

	return result
}
