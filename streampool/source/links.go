package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"livecheck/internal/shared/logger"
)

// LinkPageSource 抓取任意 HTML 页面, 把页面里所有链接和媒体地址转换成 "名称,地址" 行。
type LinkPageSource struct {
	address   string
	userAgent string
	client    *http.Client
}

// NewLinkPageSource 创建一个新的 LinkPageSource 实例。
func NewLinkPageSource(address string, opts Options) *LinkPageSource {
	opts = opts.withDefaults()
	return &LinkPageSource{
		address:   address,
		userAgent: opts.UserAgent,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

func (s *LinkPageSource) Address() string { return s.address }

func (s *LinkPageSource) Kind() string { return "links" }

func (s *LinkPageSource) Fetch(ctx context.Context) (string, error) {
	l := logger.WithComponent("StreamPool/Source")
	l.Debug().Str("source", s.address).Msg("Fetching link page...")

	body, resp, err := fetchBody(ctx, s.client, s.address, s.userAgent)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML for %s: %w", s.address, err)
	}

	base := resp.Request.URL
	var lines []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		lines = appendLink(lines, base, strings.TrimSpace(sel.Text()), href)
	})
	doc.Find("video[src], source[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		title, _ := sel.Attr("title")
		lines = appendLink(lines, base, title, src)
	})

	l.Info().Int("count", len(lines)).Str("source", s.address).Msg("Link page parsed.")
	return strings.Join(lines, "\n"), nil
}

// appendLink 解析相对地址, 并去掉名称里的逗号和换行, 保证每个链接恰好一行。
func appendLink(lines []string, base *url.URL, name, ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return lines
	}
	if u, err := url.Parse(ref); err == nil && base != nil {
		ref = base.ResolveReference(u).String()
	}
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, ",", " ")), " ")
	return append(lines, name+","+ref)
}
