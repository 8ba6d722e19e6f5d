package validator

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"

	"livecheck/streampool/model"
)

const (
	defaultRTSPPort = "554"
	defaultRTMPPort = "1935"
	rtmpVersion     = 0x03
	rtmpC1Size      = 1536
)

// Prober performs one timed reachability check for a candidate.
// Implementations must honour ctx and must always return an outcome for c.
type Prober interface {
	Probe(ctx context.Context, c model.Candidate) model.ProbeOutcome
}

// ProberOptions 配置 StreamProber。
type ProberOptions struct {
	ConnectTimeout time.Duration
	UserAgent      string
	Proxy          string // socks5://, socks5h://, http:// 或 https://, 为空表示直连
	TLSFingerprint bool   // 使用 uTLS 随机化 ClientHello, 不能与 HTTP 代理同时使用
}

// StreamProber 根据地址协议选择探测方式:
// http/https 发送 GET, rtsp 发送 OPTIONS, rtmp 执行握手的第一步。
type StreamProber struct {
	client    *http.Client
	dialer    proxy.ContextDialer
	timeout   time.Duration
	userAgent string
	now       func() time.Time
}

// NewStreamProber builds a prober with one pooled HTTP client shared by all probes.
func NewStreamProber(opts ProberOptions) (*StreamProber, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	baseDialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	var dialer proxy.ContextDialer = baseDialer

	transport := &http.Transport{
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid probe proxy %q: %w", opts.Proxy, err)
		}
		switch proxyURL.Scheme {
		case "http", "https":
			// https 请求经 CONNECT 隧道时由 Transport 自己完成 TLS, 不会调用 DialTLSContext。
			if opts.TLSFingerprint {
				return nil, fmt.Errorf("tls_fingerprint cannot be combined with HTTP proxy %q, use a socks5 proxy", opts.Proxy)
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5", "socks5h":
			d, err := proxy.FromURL(proxyURL, baseDialer)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			cd, ok := d.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("proxy dialer for %q does not support contexts", proxyURL.Scheme)
			}
			dialer = cd
		default:
			return nil, fmt.Errorf("unsupported probe proxy scheme %q", proxyURL.Scheme)
		}
	}
	transport.DialContext = dialer.DialContext

	if opts.TLSFingerprint {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialUTLS(ctx, dialer, network, addr)
		}
	}

	return &StreamProber{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.ConnectTimeout,
		},
		dialer:    dialer,
		timeout:   opts.ConnectTimeout,
		userAgent: opts.UserAgent,
		now:       time.Now,
	}, nil
}

func dialUTLS(ctx context.Context, dialer proxy.ContextDialer, network, addr string) (net.Conn, error) {
	raw, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		raw.Close()
		return nil, err
	}
	conn := utls.UClient(raw, &utls.Config{ServerName: host}, utls.HelloRandomizedNoALPN)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return conn, nil
}

// Probe dispatches on the candidate's scheme. It never retries.
func (p *StreamProber) Probe(ctx context.Context, c model.Candidate) model.ProbeOutcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return model.UnreachableOutcome(c, model.ReasonTransport, err.Error(), 0, 0, p.now())
	}

	switch u.Scheme {
	case "http", "https":
		return p.probeHTTP(ctx, c)
	case "rtsp":
		return p.probeRTSP(ctx, c, u)
	case "rtmp":
		return p.probeRTMP(ctx, c, u)
	default:
		return model.UnreachableOutcome(c, model.ReasonTransport, "unsupported scheme: "+u.Scheme, 0, 0, p.now())
	}
}

// probeHTTP 发送一次 GET 请求, 延迟以收到第一个响应字节为准, 不读取响应体。
func (p *StreamProber) probeHTTP(ctx context.Context, c model.Candidate) model.ProbeOutcome {
	start := time.Now()
	var firstByte time.Duration
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Since(start)
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return model.UnreachableOutcome(c, model.ReasonTransport, err.Error(), 0, 0, p.now())
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), elapsed, 0, p.now())
	}
	resp.Body.Close()

	latency := elapsed
	if firstByte > 0 {
		latency = firstByte
	}
	return p.finish(c, latency, resp.StatusCode, http.StatusOK)
}

// probeRTSP 发送 OPTIONS 请求并读取状态行。
func (p *StreamProber) probeRTSP(ctx context.Context, c model.Candidate, u *url.URL) model.ProbeOutcome {
	start := time.Now()
	conn, err := p.dial(ctx, u, defaultRTSPPort)
	if err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}
	defer conn.Close()

	req := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\n", c.Endpoint)
	if p.userAgent != "" {
		req += "User-Agent: " + p.userAgent + "\r\n"
	}
	req += "\r\n"
	if _, err := conn.Write([]byte(req)); err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}

	br := bufio.NewReader(conn)
	if _, err := br.Peek(1); err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}
	latency := time.Since(start)

	statusLine, err := br.ReadString('\n')
	if err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), latency, 0, p.now())
	}
	code, err := parseRTSPStatus(statusLine)
	if err != nil {
		return model.UnreachableOutcome(c, model.ReasonTransport, err.Error(), latency, 0, p.now())
	}
	return p.finish(c, latency, code, 200)
}

// probeRTMP 发送 C0+C1, 以收到 S0 为准。S0 必须是协议版本 3。
func (p *StreamProber) probeRTMP(ctx context.Context, c model.Candidate, u *url.URL) model.ProbeOutcome {
	start := time.Now()
	conn, err := p.dial(ctx, u, defaultRTMPPort)
	if err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}
	defer conn.Close()

	hello := make([]byte, 1+rtmpC1Size)
	hello[0] = rtmpVersion
	// C1: 4 字节时间戳, 4 字节零, 其余随机
	if _, err := rand.Read(hello[9:]); err != nil {
		return model.UnreachableOutcome(c, model.ReasonTransport, err.Error(), 0, 0, p.now())
	}
	if _, err := conn.Write(hello); err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}

	s0 := make([]byte, 1)
	if _, err := conn.Read(s0); err != nil {
		return model.UnreachableOutcome(c, errReason(ctx, err), err.Error(), time.Since(start), 0, p.now())
	}
	latency := time.Since(start)
	if s0[0] != rtmpVersion {
		detail := fmt.Sprintf("unexpected rtmp version %d", s0[0])
		return model.UnreachableOutcome(c, model.ReasonStatus, detail, latency, int(s0[0]), p.now())
	}
	return p.finish(c, latency, 0, 0)
}

func (p *StreamProber) dial(ctx context.Context, u *url.URL, defaultPort string) (net.Conn, error) {
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	return conn, nil
}

// finish applies the shared acceptance rule: expected status and within the timeout.
func (p *StreamProber) finish(c model.Candidate, latency time.Duration, status, want int) model.ProbeOutcome {
	if latency > p.timeout {
		return model.UnreachableOutcome(c, model.ReasonTimeout, "response after connect timeout", latency, status, p.now())
	}
	if status != want {
		detail := fmt.Sprintf("received non-successful status code: %d", status)
		return model.UnreachableOutcome(c, model.ReasonStatus, detail, latency, status, p.now())
	}
	return model.ReachableOutcome(c, latency, status, p.now())
}

func parseRTSPStatus(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "RTSP/") {
		return 0, fmt.Errorf("malformed rtsp status line %q", strings.TrimSpace(line))
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("malformed rtsp status code %q", fields[1])
	}
	return code, nil
}

// errReason 把错误归类为超时或传输错误。
func errReason(ctx context.Context, err error) model.Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return model.ReasonTimeout
	}
	return model.ReasonTransport
}
