// Package interaction drives one prompt round trip against a provider
// tab as a polling state machine: wait for the input to become usable,
// submit the prompt, poll until a finished answer appears, then extract
// it. Deadlines come from the provider adapter; polling cadence is
// uniform across providers.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/adapter"
	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/logging"
)

// State identifies a phase of the round trip.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSending
	StateAwaiting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSending:
		return "sending"
	case StateAwaiting:
		return "awaiting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailurePrefix marks answer text that reports a transport failure
// rather than provider output. Clients see it verbatim.
const FailurePrefix = "Error:"

var (
	ErrLoadTimeout     = errors.New("page did not become ready before the load deadline")
	ErrSendFailed      = errors.New("prompt could not be submitted")
	ErrResponseTimeout = errors.New("no finished answer before the response deadline")
	ErrEmptyAnswer     = errors.New("answer container yielded no text")
)

// IsFailure reports whether an answer string carries the failure
// sentinel instead of provider output.
func IsFailure(answer string) bool {
	return strings.HasPrefix(answer, FailurePrefix)
}

// Config sets the polling cadence and deadlines for one machine.
type Config struct {
	// PollInterval is the pause between readiness and answer probes.
	PollInterval time.Duration
	// SettleDelay runs after the answer is detected and before it is
	// extracted, letting the final repaint land.
	SettleDelay time.Duration
	// LoadTimeout bounds the wait for the input to become usable.
	LoadTimeout time.Duration
	// ResponseTimeout bounds the wait for a finished answer.
	ResponseTimeout time.Duration
}

// DefaultConfig derives a config from provider deadlines with a one
// second poll and settle cadence.
func DefaultConfig(t adapter.Timeouts) Config {
	cfg := Config{
		PollInterval:    time.Second,
		SettleDelay:     time.Second,
		LoadTimeout:     t.Load,
		ResponseTimeout: t.Response,
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 2 * time.Minute
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 2 * time.Minute
	}
	return cfg
}

// Result is the outcome of one round trip.
type Result struct {
	State   State
	Text    string
	Elapsed time.Duration
	Cause   error
}

// Message renders the result for the client: the answer text on
// success, a sentinel-prefixed failure line otherwise.
func (r Result) Message() string {
	if r.State == StateDone {
		return r.Text
	}
	return fmt.Sprintf("%s %s", FailurePrefix, r.Cause)
}

// Err returns the failure cause, nil on success.
func (r Result) Err() error {
	if r.State == StateDone {
		return nil
	}
	return r.Cause
}

// Machine runs round trips for one adapter on one page. It holds no
// mutable state between runs; serialization is the caller's concern.
type Machine struct {
	adapter adapter.Adapter
	page    browser.Page
	cfg     Config
	log     *logging.Logger
}

func New(a adapter.Adapter, p browser.Page, cfg Config, log *logging.Logger) *Machine {
	return &Machine{adapter: a, page: p, cfg: cfg, log: log}
}

// WaitReady polls until the provider input is usable or the load
// deadline passes.
func (m *Machine) WaitReady(ctx context.Context) error {
	return m.pollUntil(ctx, m.cfg.LoadTimeout, func() bool {
		return m.adapter.IsReady(m.page)
	}, ErrLoadTimeout)
}

// Run executes one full round trip for prompt and never returns an
// error directly: failures land in the result with their cause.
func (m *Machine) Run(ctx context.Context, prompt string) Result {
	start := time.Now()
	fail := func(state State, err error) Result {
		m.log.Warn("Interaction failed",
			zap.String("provider", m.adapter.Name()),
			zap.String("state", state.String()),
			zap.Error(err),
		)
		return Result{State: StateFailed, Elapsed: time.Since(start), Cause: err}
	}

	if err := m.WaitReady(ctx); err != nil {
		return fail(StateLoading, err)
	}

	if !m.adapter.Send(m.page, prompt) {
		return fail(StateSending, ErrSendFailed)
	}
	m.log.Debug("Prompt submitted",
		zap.String("provider", m.adapter.Name()),
		zap.Int("prompt_chars", len(prompt)),
	)

	if err := m.pollUntil(ctx, m.cfg.ResponseTimeout, func() bool {
		return m.adapter.IsAnswered(m.page)
	}, ErrResponseTimeout); err != nil {
		return fail(StateAwaiting, err)
	}

	if m.cfg.SettleDelay > 0 {
		if err := sleepCtx(ctx, m.cfg.SettleDelay); err != nil {
			return fail(StateAwaiting, err)
		}
	}

	text := m.adapter.ExtractAnswer(m.page)
	if text == "" {
		return fail(StateDone, ErrEmptyAnswer)
	}

	elapsed := time.Since(start)
	m.log.Info("Answer extracted",
		zap.String("provider", m.adapter.Name()),
		zap.Int("answer_chars", len(text)),
		zap.Duration("elapsed", elapsed),
	)
	return Result{State: StateDone, Text: text, Elapsed: elapsed}
}

// pollUntil probes cond immediately and then on every tick until it
// holds, the limit passes, or the context ends.
func (m *Machine) pollUntil(ctx context.Context, limit time.Duration, cond func() bool, timeoutErr error) error {
	if cond() {
		return nil
	}
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return timeoutErr
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
