package validator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"livecheck/internal/shared/logger"
	"livecheck/streampool/model"
)

// Scheduler 在并发上限内对所有候选源各执行一次探测。
type Scheduler struct {
	prober      Prober
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewScheduler creates a Scheduler. dispatchRate is the maximum number of probes
// started per second; zero or less disables the limit.
func NewScheduler(prober Prober, concurrency int, timeout time.Duration, dispatchRate float64) *Scheduler {
	if concurrency <= 0 {
		concurrency = 5
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Scheduler{
		prober:      prober,
		concurrency: concurrency,
		timeout:     timeout,
	}
	if dispatchRate > 0 {
		burst := int(dispatchRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(dispatchRate), burst)
	}
	return s
}

type indexedOutcome struct {
	idx     int
	outcome model.ProbeOutcome
}

// Run probes every candidate exactly once and returns the outcomes in candidate
// order. If ctx is cancelled, or the rate limiter cannot dispatch every candidate
// before the ctx deadline, all outcomes are discarded and an error is returned.
func (s *Scheduler) Run(ctx context.Context, candidates []model.Candidate) ([]model.ProbeOutcome, error) {
	l := logger.WithComponent("StreamPool/Scheduler")
	if len(candidates) == 0 {
		return []model.ProbeOutcome{}, nil
	}

	l.Info().Int("count", len(candidates)).Int("concurrency", s.concurrency).Msg("Starting probe batch...")

	var wg sync.WaitGroup
	resultsChan := make(chan indexedOutcome, len(candidates))
	semaphore := make(chan struct{}, s.concurrency)

	// limiter.Wait 在上下文仍有效时也可能失败 (剩余时间不足以等到下一个令牌)。
	var dispatchErr error

dispatch:
	for i, c := range candidates {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				dispatchErr = err
				break dispatch
			}
		}
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(idx int, cand model.Candidate) {
			defer wg.Done()
			defer func() { <-semaphore }()

			resultsChan <- indexedOutcome{idx: idx, outcome: s.probeOne(ctx, cand)}
		}(i, c)
	}

	wg.Wait()
	close(resultsChan)

	if err := ctx.Err(); err != nil {
		l.Warn().Err(err).Msg("Probe batch aborted, discarding partial results.")
		return nil, err
	}
	if dispatchErr != nil {
		l.Warn().Err(dispatchErr).Msg("Probe dispatch stopped early, discarding partial results.")
		return nil, dispatchErr
	}

	outcomes := make([]model.ProbeOutcome, len(candidates))
	for r := range resultsChan {
		outcomes[r.idx] = r.outcome
	}

	l.Info().Msg("Probe batch finished.")
	return outcomes, nil
}

// probeOne bounds a single probe by the scheduler timeout even if the prober
// ignores its context.
func (s *Scheduler) probeOne(ctx context.Context, c model.Candidate) model.ProbeOutcome {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan model.ProbeOutcome, 1)
	go func() {
		done <- s.prober.Probe(pctx, c)
	}()

	select {
	case o := <-done:
		return o
	case <-pctx.Done():
		return model.UnreachableOutcome(c, model.ReasonTimeout, pctx.Err().Error(), s.timeout, 0, time.Now())
	}
}
