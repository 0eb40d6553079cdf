package registry

import (
	"context"
	"sync"
	"time"
)

// Pacer serializes outbound registry calls with a minimum inter-request
// delay. One Pacer is owned by exactly one crawl session; sharing across
// sessions is disallowed because the last-dispatch time would race.
type Pacer struct {
	delay time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewPacer builds a Pacer with the given minimum delay between calls.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// NewPacerWithClock builds a Pacer with an injectable clock and sleep
// function so tests can verify pacing without real waiting.
func NewPacerWithClock(delay time.Duration, now func() time.Time, sleep func(context.Context, time.Duration)) *Pacer {
	return &Pacer{delay: delay, now: now, sleep: sleep}
}

// Wait blocks until at least the configured delay has elapsed since the
// previous Wait returned. The lock is held across the sleep on purpose:
// concurrent callers within a session queue up behind it, which is what
// bounds the outbound request rate regardless of internal parallelism.
// Never fails; at worst it suspends until ctx is done.
func (p *Pacer) Wait(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if remaining := p.delay - p.now().Sub(p.last); remaining > 0 {
			p.sleep(ctx, remaining)
		}
	}
	p.last = p.now()
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
