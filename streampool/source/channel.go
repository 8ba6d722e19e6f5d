package source

import (
	"context"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"

	"livecheck/internal/shared/logger"
)

// ChannelPageSource 抓取节目页面, 每个节目在一个 <div class="channel"> 中,
// <h2> 为名称, 第一个 <a> 的 href 为地址。
type ChannelPageSource struct {
	address string
	opts    Options
}

// NewChannelPageSource 创建一个新的 ChannelPageSource 实例。
func NewChannelPageSource(address string, opts Options) *ChannelPageSource {
	return &ChannelPageSource{
		address: address,
		opts:    opts.withDefaults(),
	}
}

func (s *ChannelPageSource) Address() string { return s.address }

func (s *ChannelPageSource) Kind() string { return "channel" }

func (s *ChannelPageSource) Fetch(ctx context.Context) (string, error) {
	l := logger.WithComponent("StreamPool/Source")
	l.Debug().Str("source", s.address).Msg("Visiting channel page...")

	// 每次抓取使用新的 collector, 避免回调在多次 Fetch 之间累积。
	c := colly.NewCollector(
		colly.UserAgent(s.opts.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.opts.Timeout)

	var (
		lines    []string
		fetchErr error
		mu       sync.Mutex
	)

	c.OnHTML("div.channel", func(e *colly.HTMLElement) {
		href := e.ChildAttr("a", "href")
		if href == "" {
			return
		}
		name := strings.Join(strings.Fields(strings.ReplaceAll(e.ChildText("h2"), ",", " ")), " ")

		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, name+","+e.Request.AbsoluteURL(href))
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Error().Err(err).Int("status_code", r.StatusCode).Str("url", r.Request.URL.String()).Msg("Channel page request failed.")
		mu.Lock()
		fetchErr = err
		mu.Unlock()
	})

	if err := c.Visit(s.address); err != nil {
		return "", err
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}

	l.Info().Int("count", len(lines)).Str("source", s.address).Msg("Channel page parsed.")
	return strings.Join(lines, "\n"), nil
}
