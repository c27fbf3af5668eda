package sina

import (
	"context"
	"fmt"

	"github.com/wonny/cnquant/pkg/config"
	"github.com/wonny/cnquant/pkg/httputil"
	"github.com/wonny/cnquant/pkg/logger"
)

const (
	// ListPageSize is the listing page size the Market_Center API serves
	ListPageSize = 80
	// QuoteBatchSize is the maximum number of symbols per hq request
	QuoteBatchSize = 50
)

// Client handles communication with Sina Finance
// ⭐ SSOT: Sina Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.SinaConfig
}

// NewClient creates a new Sina Finance client
func NewClient(httpClient *httputil.Client, cfg config.SinaConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// fetch performs a GET with the Sina referer and decodes the body
func (c *Client) fetch(ctx context.Context, url string, encoding string) (string, error) {
	text, err := c.httpClient.GetText(ctx, url,
		httputil.WithHeader("Referer", c.cfg.Referer),
		httputil.WithEncoding(encoding),
	)
	if err != nil {
		return "", fmt.Errorf("sina request failed: %w", err)
	}
	return text, nil
}
