package source

import (
	"context"
	"net/http"

	"livecheck/internal/shared/logger"
)

// TextSource 抓取纯文本或 M3U 列表, 原样返回内容。
type TextSource struct {
	address   string
	userAgent string
	client    *http.Client
}

// NewTextSource 创建一个新的 TextSource 实例。
func NewTextSource(address string, opts Options) *TextSource {
	opts = opts.withDefaults()
	return &TextSource{
		address:   address,
		userAgent: opts.UserAgent,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

func (s *TextSource) Address() string { return s.address }

func (s *TextSource) Kind() string { return "text" }

func (s *TextSource) Fetch(ctx context.Context) (string, error) {
	l := logger.WithComponent("StreamPool/Source")
	l.Debug().Str("source", s.address).Msg("Fetching text list...")

	body, _, err := fetchBody(ctx, s.client, s.address, s.userAgent)
	if err != nil {
		return "", err
	}

	l.Info().Str("source", s.address).Int("bytes", len(body)).Msg("Fetch finished.")
	return string(body), nil
}
