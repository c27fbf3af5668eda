package sina

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/wonny/cnquant/internal/contracts"
)

const snippetMaxRunes = 200

// Search returns up to limit recent headlines from the per-stock news list
func (c *Client) Search(ctx context.Context, code string, limit int) ([]contracts.NewsItem, error) {
	u := fmt.Sprintf("%s/%s.phtml", c.cfg.NewsURL, contracts.Qualify(code))

	page, err := c.fetch(ctx, u, "gbk")
	if err != nil {
		return nil, err
	}

	items, err := parseNews(page, u, limit)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"count": len(items),
	}).Debug("Fetched news")
	return items, nil
}

// parseNews reads the "datelist" block:
//
//	<div class="datelist"><ul>2024-01-15&nbsp;10:30&nbsp;&nbsp;<a href="...">title</a><br>...
func parseNews(page string, pageURL string, limit int) ([]contracts.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse news html: %w", err)
	}

	base, _ := url.Parse(pageURL)

	var items []contracts.NewsItem
	doc.Find(".datelist ul a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(a.Text())
		href, ok := a.Attr("href")
		if title == "" || !ok {
			return true
		}
		if base != nil {
			if ref, err := base.Parse(href); err == nil {
				href = ref.String()
			}
		}

		items = append(items, contracts.NewsItem{
			Title:   title,
			URL:     href,
			Snippet: precedingText(a),
		})
		return true
	})

	return items, nil
}

// precedingText returns the text node right before the link (publish time)
func precedingText(a *goquery.Selection) string {
	if len(a.Nodes) == 0 {
		return ""
	}
	prev := a.Nodes[0].PrevSibling
	if prev == nil || prev.Type != html.TextNode {
		return ""
	}

	text := strings.Join(strings.Fields(prev.Data), " ")
	if r := []rune(text); len(r) > snippetMaxRunes {
		text = string(r[:snippetMaxRunes])
	}
	return text
}
