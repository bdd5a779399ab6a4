// Package ratelimit provides a dual sliding-window admission gate for
// external API calls: requests per second and tokens per minute are enforced
// simultaneously.
package ratelimit

import (
	"context"
	"time"
)

const (
	requestWindow = time.Second
	tokenWindow   = time.Minute
	pollInterval  = 100 * time.Millisecond
)

type tokenRecord struct {
	at     time.Time
	tokens int
}

// Limiter admits a call only when both windows have headroom. There is no
// queueing fairness: the first caller to re-check after headroom opens wins.
type Limiter struct {
	qps float64
	tpm int

	sem      chan struct{} // guards both windows; channel so waits stay ctx-aware
	requests []time.Time
	tokens   []tokenRecord

	now func() time.Time
}

func NewLimiter(qps float64, tpm int) *Limiter {
	l := &Limiter{
		qps: qps,
		tpm: tpm,
		sem: make(chan struct{}, 1),
		now: time.Now,
	}
	return l
}

// Acquire blocks until the call is admissible under both windows, then
// records it. The headroom check and the record happen under one critical
// section, so two concurrent callers can never both observe headroom and
// jointly over-admit.
func (l *Limiter) Acquire(ctx context.Context, tokens int) error {
	for {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		now := l.now()
		l.prune(now)
		if float64(len(l.requests)) < l.qps && l.tokensInWindow()+tokens <= l.tpm {
			l.requests = append(l.requests, now)
			l.tokens = append(l.tokens, tokenRecord{at: now, tokens: tokens})
			<-l.sem
			return nil
		}
		<-l.sem

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// prune drops records that fell out of their window. Called lazily on each
// check, with the critical section held.
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.requests) && now.Sub(l.requests[i]) > requestWindow {
		i++
	}
	l.requests = l.requests[i:]

	j := 0
	for j < len(l.tokens) && now.Sub(l.tokens[j].at) > tokenWindow {
		j++
	}
	l.tokens = l.tokens[j:]
}

func (l *Limiter) tokensInWindow() int {
	total := 0
	for _, r := range l.tokens {
		total += r.tokens
	}
	return total
}
