package sina

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

// SectorKind selects the board ranking node
type SectorKind string

const (
	SectorIndustry SectorKind = "hangye_block"  // 行业板块
	SectorConcept  SectorKind = "gainian_block" // 概念板块
)

// ListingCount returns the number of listed A-shares
func (c *Client) ListingCount(ctx context.Context) (int, error) {
	u := fmt.Sprintf("%s/Market_Center.getHQNodeStockCount?node=hs_a", c.cfg.ListURL)
	text, err := c.fetch(ctx, u, "utf-8")
	if err != nil {
		return 0, err
	}
	return parseCount(text)
}

// ListingPage returns one page of the A-share listing sorted by market cap
func (c *Client) ListingPage(ctx context.Context, page, size int) ([]contracts.ListingRow, error) {
	text, err := c.fetch(ctx, c.nodeURL("hs_a", "mktcap", page, size), "utf-8")
	if err != nil {
		return nil, err
	}
	return parseListing(text), nil
}

// GetSectorRotation returns industry or concept boards ranked by change percent
func (c *Client) GetSectorRotation(ctx context.Context, kind SectorKind, limit int) ([]contracts.SectorQuote, error) {
	text, err := c.fetch(ctx, c.nodeURL(string(kind), "changepercent", 1, limit), "utf-8")
	if err != nil {
		return nil, err
	}
	return parseSectors(text), nil
}

func (c *Client) nodeURL(node, sort string, page, size int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("num", strconv.Itoa(size))
	q.Set("sort", sort)
	q.Set("asc", "0")
	q.Set("node", node)
	return fmt.Sprintf("%s/Market_Center.getHQNodeData?%s", c.cfg.ListURL, q.Encode())
}

// parseCount accepts a bare or quoted digit string, e.g. "5432" or 5432
func parseCount(text string) (int, error) {
	s := strings.Trim(strings.TrimSpace(text), `"`)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("non-numeric listing count %q", text)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse listing count: %w", err)
	}
	return n, nil
}

// parseListing maps the JSON array to raw rows. Numbers may arrive as
// strings or JSON numbers; both keep their textual form. Malformed
// bodies yield no rows.
func parseListing(text string) []contracts.ListingRow {
	if !gjson.Valid(text) {
		return nil
	}
	data := gjson.Parse(text)
	if !data.IsArray() {
		return nil
	}

	rows := make([]contracts.ListingRow, 0, ListPageSize)
	data.ForEach(func(_, d gjson.Result) bool {
		if !d.IsObject() {
			return true
		}
		code := d.Get("code").String()
		if code == "" {
			return true
		}
		rows = append(rows, contracts.ListingRow{
			Code:          code,
			Name:          d.Get("name").String(),
			Trade:         d.Get("trade").String(),
			PE:            d.Get("per").String(),
			PB:            d.Get("pb").String(),
			MktCap:        d.Get("mktcap").String(),
			Amount:        d.Get("amount").String(),
			TurnoverRatio: d.Get("turnoverratio").String(),
			ChangePercent: d.Get("changepercent").String(),
			Volume:        d.Get("volume").String(),
		})
		return true
	})
	return rows
}

func parseSectors(text string) []contracts.SectorQuote {
	if !gjson.Valid(text) {
		return nil
	}

	var sectors []contracts.SectorQuote
	gjson.Parse(text).ForEach(func(_, d gjson.Result) bool {
		sectors = append(sectors, contracts.SectorQuote{
			Name:      d.Get("name").String(),
			Code:      d.Get("symbol").String(),
			ChangePct: numutil.ParseFloat(d.Get("changepercent").String()),
			Amount:    numutil.ParseFloat(d.Get("amount").String()),
		})
		return true
	})
	return sectors
}
