package types

import "time"

// DefaultSchemes 是允许作为候选直播源的协议前缀。
var DefaultSchemes = []string{"http", "https", "rtmp", "rtsp", "rtp", "p2p", "p3p"}

// ProbeConf 包含探测相关的配置
type ProbeConf struct {
	ConnectTimeout float64 `ini:"connect_timeout"` // 单次探测超时 (秒)
	ValidThreshold float64 `ini:"valid_threshold"` // 有效响应时间阈值 (秒)
	MaxConcurrency int     `ini:"max_concurrency"`
	DispatchRate   float64 `ini:"dispatch_rate"` // 每秒最多发起的探测数, 0 表示不限制
	UserAgent      string  `ini:"user_agent"`
	TLSFingerprint bool    `ini:"tls_fingerprint"`
	Proxy          string  `ini:"proxy"` // 上游代理, e.g. socks5://127.0.0.1:1080
}

// ConnectTimeoutDuration converts the configured seconds into a time.Duration.
func (c ProbeConf) ConnectTimeoutDuration() time.Duration {
	return seconds(c.ConnectTimeout)
}

// ValidThresholdDuration converts the configured seconds into a time.Duration.
func (c ProbeConf) ValidThresholdDuration() time.Duration {
	return seconds(c.ValidThreshold)
}

// SourceConf 包含直播源列表的配置
type SourceConf struct {
	ListFile     string   `ini:"list_file"`     // 相对路径以配置目录为基准
	FetchTimeout int      `ini:"fetch_timeout"` // 秒
	Schemes      []string `ini:"schemes" delim:","`
}

// FetchTimeoutDuration converts the configured seconds into a time.Duration.
func (c SourceConf) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// OutputConf 包含白名单/黑名单输出格式的配置
type OutputConf struct {
	BaseDir         string `ini:"base_dir"`
	WhiteFile       string `ini:"white_file"`
	BlackFile       string `ini:"black_file"`
	NameColumn      bool   `ini:"name_column"`
	TimestampColumn bool   `ini:"timestamp_column"`
	GenreHeader     bool   `ini:"genre_header"`
	DefaultCategory string `ini:"default_category"`
	KeywordCategory bool   `ini:"keyword_category"` // 按频道名称中的关键词推断分类
	DetailedReason  bool   `ini:"detailed_reason"`
	Delimiter       string `ini:"delimiter"`
}

// ScheduleConf 控制是否周期性地重复执行检测
type ScheduleConf struct {
	IntervalMinutes int `ini:"interval_minutes"` // 0 表示只运行一次
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是 livecheck 的统一配置结构体
type Config struct {
	ProbeConf    `ini:"probe"`
	SourceConf   `ini:"source"`
	OutputConf   `ini:"output"`
	ScheduleConf `ini:"schedule"`
	LogConf      `ini:"log"`
}

// DefaultConfig returns a Config populated with the values used when the ini file
// leaves a key out.
func DefaultConfig() *Config {
	return &Config{
		ProbeConf: ProbeConf{
			ConnectTimeout: 5,
			ValidThreshold: 2,
			MaxConcurrency: 20,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		},
		SourceConf: SourceConf{
			ListFile:     "sources.txt",
			FetchTimeout: 20,
			Schemes:      append([]string(nil), DefaultSchemes...),
		},
		OutputConf: OutputConf{
			BaseDir:         "live_streams",
			WhiteFile:       "white_list.txt",
			BlackFile:       "black_list.txt",
			NameColumn:      true,
			TimestampColumn: true,
			DefaultCategory: "其他频道",
			KeywordCategory: true,
			Delimiter:       ", ",
		},
		LogConf: LogConf{
			Level: "info",
		},
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
