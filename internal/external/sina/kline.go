package sina

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

// var _sh600519=([{"day":"2024-01-15","open":"1690.000",...}]);
var jsonpRe = regexp.MustCompile(`(?s)\((\[.+\])\)`)

// GetKline fetches up to days bars of the given period, oldest first
func (c *Client) GetKline(ctx context.Context, code string, period contracts.KlinePeriod, days int) ([]contracts.PricePoint, error) {
	scale, ok := period.Scale()
	if !ok {
		scale = 240
	}

	qualified := contracts.Qualify(code)
	u := fmt.Sprintf("%s/var%%20_%s=/CN_MarketDataService.getKLineData?symbol=%s&scale=%d&ma=no&datalen=%d",
		c.cfg.KlineURL, qualified, qualified, scale, days)

	text, err := c.fetch(ctx, u, "utf-8")
	if err != nil {
		return nil, err
	}
	return parseKline(text), nil
}

// parseKline extracts bars from a JSONP body. Malformed payloads yield no bars.
func parseKline(text string) []contracts.PricePoint {
	m := jsonpRe.FindStringSubmatch(text)
	if m == nil || !gjson.Valid(m[1]) {
		return nil
	}

	var points []contracts.PricePoint
	gjson.Parse(m[1]).ForEach(func(_, d gjson.Result) bool {
		points = append(points, contracts.PricePoint{
			Date:   d.Get("day").String(),
			Open:   numutil.ParseFloat(d.Get("open").String()),
			High:   numutil.ParseFloat(d.Get("high").String()),
			Low:    numutil.ParseFloat(d.Get("low").String()),
			Close:  numutil.ParseFloat(d.Get("close").String()),
			Volume: numutil.ParseFloat(d.Get("volume").String()),
		})
		return true
	})
	return points
}
