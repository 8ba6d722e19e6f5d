package model

import "time"

// UnknownName 是候选源没有显示名称时使用的占位名。
const UnknownName = "Unknown"

// SourceDescriptor 描述一个直播源列表及其抓取到的原始内容。
// 抓取失败时 Payload 为空, Err 记录失败原因; 创建后不再修改。
type SourceDescriptor struct {
	Address string // 列表地址, 同时作为来源标识
	Kind    string // "text", "channel", "links"
	Payload string
	Err     error
}

// Candidate 是一个待探测的直播地址。
type Candidate struct {
	Endpoint string // 去重依据, 精确字符串比较
	Origin   string // 首次发现它的 SourceDescriptor.Address
	Name     string
	Category string // 可选的分类标签, 仅用于展示
	Index    int    // 去重后的发现顺序
}

// DisplayName returns Name, or UnknownName when the source supplied none.
func (c Candidate) DisplayName() string {
	if c.Name == "" {
		return UnknownName
	}
	return c.Name
}

// OutcomeKind 表示一次探测的结果类型。
type OutcomeKind int

const (
	Unreachable OutcomeKind = iota
	Reachable
)

// Reason 区分不可达的原因。
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonTimeout   Reason = "timeout"
	ReasonStatus    Reason = "status"
	ReasonTransport Reason = "transport"
)

// ProbeOutcome 是对单个 Candidate 的一次探测结果, 每个 Candidate 恰好一个。
type ProbeOutcome struct {
	Candidate  Candidate
	Kind       OutcomeKind
	Latency    time.Duration // 从发出请求到收到第一个响应字节
	Reason     Reason
	Detail     string // 原始错误信息, 仅用于日志
	StatusCode int    // 0 表示没有拿到状态码
	CheckedAt  time.Time
}

// ReachableOutcome builds a Reachable outcome.
func ReachableOutcome(c Candidate, latency time.Duration, status int, at time.Time) ProbeOutcome {
	return ProbeOutcome{
		Candidate:  c,
		Kind:       Reachable,
		Latency:    latency,
		StatusCode: status,
		CheckedAt:  at,
	}
}

// UnreachableOutcome builds an Unreachable outcome.
func UnreachableOutcome(c Candidate, reason Reason, detail string, latency time.Duration, status int, at time.Time) ProbeOutcome {
	return ProbeOutcome{
		Candidate:  c,
		Kind:       Unreachable,
		Latency:    latency,
		Reason:     reason,
		Detail:     detail,
		StatusCode: status,
		CheckedAt:  at,
	}
}

// Verdict 是分类结果。
type Verdict int

const (
	Rejected Verdict = iota
	Accepted
)

func (v Verdict) String() string {
	if v == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Classification 由 ProbeOutcome 和阈值确定性地得出, 创建后不再修改。
type Classification struct {
	Candidate Candidate
	Outcome   ProbeOutcome
	Verdict   Verdict
}

// ResultSet 是交给 Writer 的最终结果, 两个列表都按发现顺序排列。
type ResultSet struct {
	Accepted []Classification
	Rejected []Classification
}

// Len returns the total number of classifications.
func (rs ResultSet) Len() int {
	return len(rs.Accepted) + len(rs.Rejected)
}
