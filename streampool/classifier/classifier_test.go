package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecheck/streampool/model"
)

func reachable(endpoint string, latency time.Duration) model.ProbeOutcome {
	return model.ReachableOutcome(model.Candidate{Endpoint: endpoint}, latency, 200, time.Time{})
}

func TestClassify_ThresholdBoundary(t *testing.T) {
	threshold := 2 * time.Second

	tests := []struct {
		name    string
		outcome model.ProbeOutcome
		want    model.Verdict
	}{
		{"fast", reachable("a", 500*time.Millisecond), model.Accepted},
		{"exactly threshold", reachable("b", threshold), model.Accepted},
		{"threshold plus epsilon", reachable("c", threshold+time.Nanosecond), model.Rejected},
		{"unreachable timeout", model.UnreachableOutcome(model.Candidate{Endpoint: "d"}, model.ReasonTimeout, "", 0, 0, time.Time{}), model.Rejected},
		{"unreachable status with low latency", model.UnreachableOutcome(model.Candidate{Endpoint: "e"}, model.ReasonStatus, "", time.Millisecond, 404, time.Time{}), model.Rejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.outcome, threshold)
			assert.Equal(t, tt.want, got.Verdict)
			assert.Equal(t, tt.outcome.Candidate, got.Candidate)
		})
	}
}

func TestPartition_PreservesOrder(t *testing.T) {
	outcomes := []model.ProbeOutcome{
		reachable("1", time.Second),
		reachable("2", 9*time.Second),
		reachable("3", time.Second),
		model.UnreachableOutcome(model.Candidate{Endpoint: "4"}, model.ReasonTransport, "", 0, 0, time.Time{}),
		reachable("5", 2*time.Second),
	}

	rs := Partition(outcomes, 2*time.Second)

	require.Equal(t, len(outcomes), rs.Len())
	var accepted, rejected []string
	for _, c := range rs.Accepted {
		accepted = append(accepted, c.Candidate.Endpoint)
	}
	for _, c := range rs.Rejected {
		rejected = append(rejected, c.Candidate.Endpoint)
	}
	assert.Equal(t, []string{"1", "3", "5"}, accepted)
	assert.Equal(t, []string{"2", "4"}, rejected)
}

func TestPartition_Empty(t *testing.T) {
	rs := Partition(nil, time.Second)
	assert.NotNil(t, rs.Accepted)
	assert.NotNil(t, rs.Rejected)
	assert.Zero(t, rs.Len())
}
