package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPoll returns results in sequence, repeating the last one forever.
type scriptedPoll struct {
	mu      sync.Mutex
	results []PollResult
	errs    []error
	calls   int
}

func (p *scriptedPoll) fn(_ context.Context) (PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return PollResult{}, p.errs[i]
	}
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	if i < 0 {
		return PollResult{Outcome: OutcomePending}, nil
	}
	return p.results[i], nil
}

func (p *scriptedPoll) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func okTrigger(_ context.Context) error { return nil }

func waitForPhase(t *testing.T, c *Coordinator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.Phase() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase never reached %q (stuck at %q)", want, c.Phase())
}

func TestCoordinator_TriggerToPollToDone(t *testing.T) {
	poll := &scriptedPoll{results: []PollResult{
		{Outcome: OutcomePending},
		{Outcome: OutcomeDone, URL: "https://x/y.mp4"},
	}}
	c := New(okTrigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Open(PollResult{Outcome: OutcomePending})
	require.Equal(t, PhaseIdle, c.Phase())

	c.Generate()
	waitForPhase(t, c, PhaseDone)
	assert.Equal(t, "https://x/y.mp4", c.ResultURL())
	assert.Empty(t, c.Err())

	// Timer cancelled on completion: the poll count stops moving.
	settled := poll.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, poll.count())
}

func TestCoordinator_TriggeringVisibleWhileTriggerInFlight(t *testing.T) {
	release := make(chan struct{})
	trigger := func(_ context.Context) error {
		<-release
		return nil
	}
	poll := &scriptedPoll{results: []PollResult{{Outcome: OutcomePending}}}
	c := New(trigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Generate()
	waitForPhase(t, c, PhaseTriggering)

	close(release)
	waitForPhase(t, c, PhasePolling)
}

func TestCoordinator_TriggerRejectionIsRetryable(t *testing.T) {
	var attempts int
	trigger := func(_ context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("webhook unreachable")
		}
		return nil
	}
	poll := &scriptedPoll{results: []PollResult{{Outcome: OutcomePending}}}
	c := New(trigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Generate()
	waitForPhase(t, c, PhaseError)
	assert.Equal(t, "webhook unreachable", c.Err())
	assert.Zero(t, poll.count(), "a rejected trigger must not start polling")

	c.Generate()
	waitForPhase(t, c, PhasePolling)
	assert.Empty(t, c.Err())
}

func TestCoordinator_FlaggedResultAndRetry(t *testing.T) {
	poll := &scriptedPoll{results: []PollResult{{Outcome: OutcomeFlagged}}}
	c := New(okTrigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Generate()
	waitForPhase(t, c, PhaseUnderReview)
	assert.Equal(t, "result flagged for review", c.Err())
	assert.Empty(t, c.ResultURL())

	settled := poll.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, poll.count(), "poll timer must stop on flagged")

	// under_review is user-retryable, same transition as from idle.
	c.Generate()
	waitForPhase(t, c, PhasePolling)
}

func TestCoordinator_PollFailureKeepsPolling(t *testing.T) {
	poll := &scriptedPoll{
		errs:    []error{errors.New("record temporarily unreadable")},
		results: []PollResult{{}, {Outcome: OutcomeDone, URL: "https://x/out.png"}},
	}
	c := New(okTrigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})
	defer c.Close()

	c.Generate()
	waitForPhase(t, c, PhaseDone)
	assert.Equal(t, "https://x/out.png", c.ResultURL())
}

func TestCoordinator_CloseMidPollingThenReopenDone(t *testing.T) {
	poll := &scriptedPoll{results: []PollResult{{Outcome: OutcomePending}}}
	c := New(okTrigger, poll.fn, Config{PollInterval: 10 * time.Millisecond})

	c.Generate()
	waitForPhase(t, c, PhasePolling)

	c.Close()
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Empty(t, c.ResultURL())
	assert.Empty(t, c.Err())

	settled := poll.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, poll.count(), "close must cancel the poll timer")

	// The record finished while the dialog was closed; reopening sees done,
	// not a resumed polling phase.
	c.Open(PollResult{Outcome: OutcomeDone, URL: "https://x/final.mp4"})
	assert.Equal(t, PhaseDone, c.Phase())
	assert.Equal(t, "https://x/final.mp4", c.ResultURL())
}

func TestCoordinator_OpenEntryStates(t *testing.T) {
	c := New(okTrigger, (&scriptedPoll{}).fn, Config{PollInterval: time.Hour})
	defer c.Close()

	c.Open(PollResult{Outcome: OutcomeDone, URL: "https://x/a.mp4"})
	assert.Equal(t, PhaseDone, c.Phase())
	assert.Equal(t, "https://x/a.mp4", c.ResultURL())

	c.Open(PollResult{Outcome: OutcomeFlagged, Message: "needs manual check"})
	assert.Equal(t, PhaseUnderReview, c.Phase())
	assert.Equal(t, "needs manual check", c.Err())
	assert.Empty(t, c.ResultURL())

	// A completion marker without a result URL is not trustworthy enough to
	// open into done.
	c.Open(PollResult{Outcome: OutcomeDone})
	assert.Equal(t, PhaseIdle, c.Phase())

	c.Open(PollResult{Outcome: OutcomePending})
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestCoordinator_GenerateIgnoredWhileBusy(t *testing.T) {
	release := make(chan struct{})
	var triggers int
	var mu sync.Mutex
	trigger := func(_ context.Context) error {
		mu.Lock()
		triggers++
		mu.Unlock()
		<-release
		return nil
	}
	poll := &scriptedPoll{results: []PollResult{{Outcome: OutcomePending}}}
	c := New(trigger, poll.fn, Config{PollInterval: time.Hour})
	defer c.Close()

	c.Generate()
	waitForPhase(t, c, PhaseTriggering)
	c.Generate() // busy: ignored
	c.Generate()
	close(release)
	waitForPhase(t, c, PhasePolling)
	c.Generate() // polling: ignored too

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, triggers)
}
