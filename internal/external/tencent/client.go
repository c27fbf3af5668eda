package tencent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/cnquant/pkg/config"
	"github.com/wonny/cnquant/pkg/httputil"
	"github.com/wonny/cnquant/pkg/logger"
)

const (
	// QuoteBatchSize is the maximum number of symbols per request
	QuoteBatchSize = 50

	quoteMinFields = 50
	indexMinFields = 35
)

// DefaultIndices are 上证指数, 沪深300, 中证500 and 创业板指
var DefaultIndices = []string{"sh000001", "sh000300", "sh000905", "sz399006"}

// v_sh600519="1~贵州茅台~600519~1455.02~...";
var lineRe = regexp.MustCompile(`v_\w+="(.+)"`)

// Client handles communication with the Tencent quote API
// ⭐ SSOT: Tencent 시세 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Tencent quote client
func NewClient(httpClient *httputil.Client, cfg config.TencentConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.QuoteURL,
	}
}

// fetchRecords requests qualified codes and returns tilde-split records
func (c *Client) fetchRecords(ctx context.Context, qualified []string) ([][]string, error) {
	u := fmt.Sprintf("%s/q=%s", c.baseURL, strings.Join(qualified, ","))
	text, err := c.httpClient.GetText(ctx, u, httputil.WithEncoding("gbk"))
	if err != nil {
		return nil, fmt.Errorf("tencent request failed: %w", err)
	}
	return splitRecords(text), nil
}

func splitRecords(text string) [][]string {
	var records [][]string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), ";")
		if line == "" || !strings.Contains(line, "~") {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		records = append(records, strings.Split(m[1], "~"))
	}
	return records
}
