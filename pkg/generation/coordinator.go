// Package generation drives the "trigger external job, poll for completion"
// lifecycle behind the dashboard's generation dialog. The external automation
// system has no push channel back into the dashboard, so after a successful
// trigger the coordinator re-inspects the underlying record on a fixed cadence
// until it reports a result.
package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is the completion-poll cadence after a trigger.
const DefaultPollInterval = 5 * time.Second

// Phase is the current state of one open generation dialog.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseTriggering  Phase = "triggering"
	PhasePolling     Phase = "polling"
	PhaseDone        Phase = "done"
	PhaseUnderReview Phase = "under_review"
	PhaseError       Phase = "error"
)

// Outcome is what one poll of the underlying record revealed.
type Outcome string

const (
	// OutcomePending means no new information; polling continues.
	OutcomePending Outcome = "pending"

	// OutcomeDone means the job completed and a result URL is available.
	OutcomeDone Outcome = "done"

	// OutcomeFlagged means the job finished but the result needs human
	// review before it can be used.
	OutcomeFlagged Outcome = "flagged"
)

// PollResult carries one poll's outcome. URL is set for OutcomeDone, Message
// optionally for OutcomeFlagged.
type PollResult struct {
	Outcome Outcome
	URL     string
	Message string
}

// TriggerFunc asks the external system to start the job. An error means the
// trigger itself was rejected; completion is never reported here.
type TriggerFunc func(ctx context.Context) error

// PollFunc re-fetches the underlying record and reports what it shows now.
type PollFunc func(ctx context.Context) (PollResult, error)

// Config carries the coordinator timing knobs.
type Config struct {
	PollInterval time.Duration
}

// Coordinator is the per-dialog state machine. One instance backs one open
// dialog; Open re-seeds it from the record's current state, Close discards
// everything including any running poll.
type Coordinator struct {
	trigger  TriggerFunc
	poll     PollFunc
	interval time.Duration

	mu        sync.Mutex
	phase     Phase
	resultURL string
	lastErr   string
	stopPoll  context.CancelFunc
	gen       int // dialog generation; Open/Close invalidate in-flight work
}

// New creates an idle coordinator over the given trigger and poll operations.
func New(trigger TriggerFunc, poll PollFunc, cfg Config) *Coordinator {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Coordinator{
		trigger:  trigger,
		poll:     poll,
		interval: interval,
		phase:    PhaseIdle,
	}
}

// Open (re)seeds the dialog from the record's last known state: an already
// completed job opens straight into done with its result, a flagged one into
// under_review, anything else into idle. Any previous dialog activity is
// discarded first.
func (c *Coordinator) Open(entry PollResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()

	switch {
	case entry.Outcome == OutcomeDone && entry.URL != "":
		c.phase = PhaseDone
		c.resultURL = entry.URL
	case entry.Outcome == OutcomeFlagged:
		c.phase = PhaseUnderReview
		c.lastErr = flagMessage(entry.Message)
	default:
		c.phase = PhaseIdle
	}
}

// Generate runs the user-initiated trigger. Valid from idle, under_review,
// and error (the latter two are retries); in any other phase it is ignored.
// The trigger runs in the background: the dialog shows triggering until the
// external system accepts or rejects the job.
func (c *Coordinator) Generate() {
	c.mu.Lock()
	switch c.phase {
	case PhaseIdle, PhaseUnderReview, PhaseError:
	default:
		slog.Debug("Generation trigger ignored", "phase", c.phase)
		c.mu.Unlock()
		return
	}
	c.phase = PhaseTriggering
	c.lastErr = ""
	c.resultURL = ""
	gen := c.gen
	c.mu.Unlock()

	go func() {
		// Deliberately unbounded: a hung trigger stalls this dialog only, and
		// closing the dialog abandons the result via the generation check.
		err := c.trigger(context.Background())

		c.mu.Lock()
		if gen != c.gen || c.phase != PhaseTriggering {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.phase = PhaseError
			c.lastErr = err.Error()
			c.mu.Unlock()
			return
		}
		c.phase = PhasePolling
		ctx, cancel := context.WithCancel(context.Background())
		c.stopPoll = cancel
		c.mu.Unlock()

		go c.pollLoop(ctx, gen)
	}()
}

// Close ends the dialog: the poll timer (if any) is cancelled unconditionally
// and the machine resets to idle with cleared result and error. Reopening
// starts a fresh entry-state evaluation via Open.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.phase = PhaseIdle
}

// Phase returns the current dialog phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ResultURL returns the stored result URL ("" unless the phase is done).
func (c *Coordinator) ResultURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultURL
}

// Err returns the stored error or review message ("" when there is none).
func (c *Coordinator) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// pollLoop re-inspects the record once per interval until it reports a
// terminal outcome or the dialog moves on. Poll failures are treated as "no
// new information" — the record will be readable again on a later tick.
func (c *Coordinator) pollLoop(ctx context.Context, gen int) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := c.poll(ctx)
		if err != nil {
			slog.Warn("Generation status poll failed", "error", err)
			continue
		}

		c.mu.Lock()
		if gen != c.gen || c.phase != PhasePolling {
			c.mu.Unlock()
			return
		}
		switch res.Outcome {
		case OutcomeDone:
			c.phase = PhaseDone
			c.resultURL = res.URL
			c.cancelPollLocked()
			c.mu.Unlock()
			return
		case OutcomeFlagged:
			c.phase = PhaseUnderReview
			c.lastErr = flagMessage(res.Message)
			c.cancelPollLocked()
			c.mu.Unlock()
			return
		default:
			c.mu.Unlock()
		}
	}
}

// resetLocked cancels any running poll and clears result and error. The
// generation bump makes in-flight trigger goroutines and poll loops discard
// their results.
func (c *Coordinator) resetLocked() {
	c.gen++
	c.cancelPollLocked()
	c.resultURL = ""
	c.lastErr = ""
}

func (c *Coordinator) cancelPollLocked() {
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
}

func flagMessage(msg string) string {
	if msg == "" {
		return "result flagged for review"
	}
	return msg
}
