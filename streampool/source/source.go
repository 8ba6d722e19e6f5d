package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
	maxPayloadBytes  = 10 * 1024 * 1024
)

// Source 接口定义了获取一个直播源列表原始内容的行为。
type Source interface {
	// Fetch 返回列表的原始文本。HTML 来源负责把页面转换成 "名称,地址" 的行。
	Fetch(ctx context.Context) (string, error)

	// Address 返回列表地址, 用作来源标识。
	Address() string

	// Kind 返回来源的解析方式。
	Kind() string
}

// Options 是所有来源共用的抓取参数。
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// New 根据配置的类型创建来源。
func New(kind, address string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	switch kind {
	case "", "text":
		return NewTextSource(address, opts), nil
	case "channel":
		return NewChannelPageSource(address, opts), nil
	case "links":
		return NewLinkPageSource(address, opts), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

// fetchBody GETs address and returns the body decoded to UTF-8 according to the
// Content-Type header or the document's own charset declaration.
func fetchBody(ctx context.Context, client *http.Client, address, userAgent string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request for %s: %w", address, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp, fmt.Errorf("received non-200 status code (%d) from %s", resp.StatusCode, address)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxPayloadBytes))
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read body from %s: %w", address, err)
	}
	return body, resp, nil
}
