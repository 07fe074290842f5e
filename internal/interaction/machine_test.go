package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabpilot/tabpilot/internal/adapter"
	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/logging"
)

// scriptAdapter is a fully scripted Adapter for machine tests.
type scriptAdapter struct {
	readyAfter    int
	readyCalls    int
	sendOK        bool
	sentPrompt    string
	answeredAfter int
	answerCalls   int
	answer        string
}

func (a *scriptAdapter) Name() string { return "script" }
func (a *scriptAdapter) URL() string  { return "https://example.test/" }

func (a *scriptAdapter) IsReady(browser.Page) bool {
	a.readyCalls++
	return a.readyCalls > a.readyAfter
}

func (a *scriptAdapter) Send(_ browser.Page, text string) bool {
	a.sentPrompt = text
	return a.sendOK
}

func (a *scriptAdapter) IsAnswered(browser.Page) bool {
	a.answerCalls++
	return a.answerCalls > a.answeredAfter
}

func (a *scriptAdapter) ExtractAnswer(browser.Page) string { return a.answer }
func (a *scriptAdapter) CleanMarkup(raw string) string     { return raw }
func (a *scriptAdapter) Timeouts() adapter.Timeouts {
	return adapter.Timeouts{Load: time.Second, Response: time.Second}
}

func fastConfig() Config {
	return Config{
		PollInterval:    5 * time.Millisecond,
		SettleDelay:     0,
		LoadTimeout:     100 * time.Millisecond,
		ResponseTimeout: 100 * time.Millisecond,
	}
}

func newMachine(a adapter.Adapter, cfg Config) *Machine {
	return New(a, nil, cfg, logging.NewNop())
}

func TestRunSuccess(t *testing.T) {
	a := &scriptAdapter{sendOK: true, readyAfter: 2, answeredAfter: 2, answer: "forty-two"}
	m := newMachine(a, fastConfig())

	res := m.Run(context.Background(), "what is the answer")
	require.NoError(t, res.Err())
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, "forty-two", res.Text)
	assert.Equal(t, "forty-two", res.Message())
	assert.Equal(t, "what is the answer", a.sentPrompt)
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestRunLoadTimeout(t *testing.T) {
	a := &scriptAdapter{sendOK: true, readyAfter: 1 << 30}
	m := newMachine(a, fastConfig())

	res := m.Run(context.Background(), "hello")
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err(), ErrLoadTimeout)
	assert.Empty(t, a.sentPrompt, "nothing should be sent when the page never loads")
}

func TestRunSendFailure(t *testing.T) {
	a := &scriptAdapter{sendOK: false}
	m := newMachine(a, fastConfig())

	res := m.Run(context.Background(), "hello")
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err(), ErrSendFailed)
	assert.True(t, IsFailure(res.Message()))
}

func TestRunResponseTimeoutBounded(t *testing.T) {
	a := &scriptAdapter{sendOK: true, answeredAfter: 1 << 30}
	cfg := fastConfig()
	cfg.ResponseTimeout = 50 * time.Millisecond
	m := newMachine(a, cfg)

	start := time.Now()
	res := m.Run(context.Background(), "hello")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, res.Err(), ErrResponseTimeout)
}

func TestRunEmptyAnswerFails(t *testing.T) {
	a := &scriptAdapter{sendOK: true, answer: ""}
	m := newMachine(a, fastConfig())

	res := m.Run(context.Background(), "hello")
	assert.ErrorIs(t, res.Err(), ErrEmptyAnswer)
}

func TestRunContextCancellation(t *testing.T) {
	a := &scriptAdapter{sendOK: true, answeredAfter: 1 << 30}
	cfg := fastConfig()
	cfg.ResponseTimeout = 10 * time.Second
	m := newMachine(a, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	res := m.Run(ctx, "hello")
	assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)
}

func TestWaitReadyImmediate(t *testing.T) {
	a := &scriptAdapter{}
	m := newMachine(a, fastConfig())
	require.NoError(t, m.WaitReady(context.Background()))
	assert.Equal(t, 1, a.readyCalls)
}

func TestDefaultConfigFallbacks(t *testing.T) {
	cfg := DefaultConfig(adapter.Timeouts{})
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.LoadTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ResponseTimeout)

	cfg = DefaultConfig(adapter.Timeouts{Load: time.Minute, Response: 1000 * time.Second})
	assert.Equal(t, time.Minute, cfg.LoadTimeout)
	assert.Equal(t, 1000*time.Second, cfg.ResponseTimeout)
}

func TestFailurePrefixDetection(t *testing.T) {
	assert.True(t, IsFailure("Error: response timeout"))
	assert.False(t, IsFailure("The error was on line 3"))
}
