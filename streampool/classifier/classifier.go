package classifier

import (
	"time"

	"livecheck/streampool/model"
)

// Classify maps one outcome to a verdict. Reachable outcomes whose latency is at most
// threshold are accepted; everything else is rejected.
func Classify(o model.ProbeOutcome, threshold time.Duration) model.Classification {
	verdict := model.Rejected
	if o.Kind == model.Reachable && o.Latency <= threshold {
		verdict = model.Accepted
	}
	return model.Classification{
		Candidate: o.Candidate,
		Outcome:   o,
		Verdict:   verdict,
	}
}

// Partition 对一批结果分类, 两个列表都保持 outcomes 的顺序。
func Partition(outcomes []model.ProbeOutcome, threshold time.Duration) model.ResultSet {
	rs := model.ResultSet{
		Accepted: make([]model.Classification, 0),
		Rejected: make([]model.Classification, 0),
	}
	for _, o := range outcomes {
		c := Classify(o, threshold)
		if c.Verdict == model.Accepted {
			rs.Accepted = append(rs.Accepted, c)
		} else {
			rs.Rejected = append(rs.Rejected, c)
		}
	}
	return rs
}
