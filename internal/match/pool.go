package match

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tracklist"
	"golang.org/x/time/rate"
)

// retryBaseDelay is the first backoff step; each retry doubles it.
const retryBaseDelay = 200 * time.Millisecond

type matchJob struct {
	index     int
	candidate tracklist.TrackCandidate
}

// MatchAll resolves candidates concurrently with a bounded, rate-limited
// worker pool. Results come back in candidate order regardless of completion
// order.
//
// Transient search failures are retried with exponential backoff up to
// MaxRetries; a candidate whose retries are exhausted becomes Unmatched with
// ReasonSearchFailed. An authentication failure cancels the remaining work
// and is returned as the batch error.
func (m *Matcher) MatchAll(ctx context.Context, candidates []tracklist.TrackCandidate) ([]MatchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(m.opts.RateLimit), 1)
	results := make([]MatchResult, len(candidates))

	jobs := make(chan matchJob, len(candidates))

	var mu sync.Mutex
	var batchErr error

	var done atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < m.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := m.runJob(ctx, limiter, job, func(err error) {
					mu.Lock()
					if batchErr == nil {
						batchErr = err
					}
					mu.Unlock()
					cancel()
				})
				results[job.index] = result

				if m.onResult != nil {
					m.onResult(int(done.Add(1)), len(candidates), result)
				}
			}
		}()
	}

	for i, candidate := range candidates {
		jobs <- matchJob{index: i, candidate: candidate}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	err := batchErr
	mu.Unlock()
	return results, err
}

// runJob matches one candidate with rate limiting and retries. abort is
// called for failures that should stop the whole batch.
func (m *Matcher) runJob(ctx context.Context, limiter *rate.Limiter, job matchJob, abort func(error)) MatchResult {
	failed := MatchResult{
		Candidate: job.candidate,
		Status:    StatusUnmatched,
		Reason:    ReasonSearchFailed,
	}

	if err := limiter.Wait(ctx); err != nil {
		return failed
	}

	var lastErr error
	for attempt := 0; attempt <= m.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			m.logger.Debug("retrying search", "candidate", job.candidate.String(), "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return failed
			case <-time.After(delay):
			}
		}

		searchCtx, cancel := context.WithTimeout(ctx, m.opts.SearchTimeout)
		result, err := m.Match(searchCtx, job.candidate)
		cancel()

		if err == nil {
			return result
		}
		lastErr = err

		if errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrNotAuthenticated) {
			abort(err)
			return failed
		}
		if !transient(err) {
			break
		}
		if ctx.Err() != nil {
			return failed
		}
	}

	m.logger.Warn("search failed", "candidate", job.candidate.String(), "err", lastErr)
	return failed
}
