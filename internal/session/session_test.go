package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabpilot/tabpilot/internal/adapter"
	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/interaction"
	"github.com/tabpilot/tabpilot/internal/logging"
	"github.com/tabpilot/tabpilot/internal/monitoring"
	"github.com/tabpilot/tabpilot/internal/reconcile"
)

// fakePage satisfies browser.Page; the fake adapter below ignores it.
type fakePage struct {
	navigated []string
	navErr    error
}

func (f *fakePage) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}
func (f *fakePage) Count(string) int                            { return 0 }
func (f *fakePage) Click(string, int) bool                      { return true }
func (f *fakePage) Type(string, string) bool                    { return true }
func (f *fakePage) Attribute(string, int, string) (string, bool) { return "", false }
func (f *fakePage) Text(string, int) (string, bool)             { return "", false }
func (f *fakePage) OuterHTML(string, int) (string, bool)        { return "", false }
func (f *fakePage) Eval(string) bool                            { return true }
func (f *fakePage) Clipboard() (string, error)                  { return "", nil }

// fakeAdapter answers immediately with a canned reply and records every
// prompt it was asked to send.
type fakeAdapter struct {
	reply   string
	sendOK  bool
	prompts []string
}

func (a *fakeAdapter) Name() string                    { return "fake" }
func (a *fakeAdapter) URL() string                     { return "https://fake.test/" }
func (a *fakeAdapter) IsReady(browser.Page) bool       { return true }
func (a *fakeAdapter) IsAnswered(browser.Page) bool    { return true }
func (a *fakeAdapter) ExtractAnswer(browser.Page) string { return a.reply }
func (a *fakeAdapter) CleanMarkup(raw string) string   { return raw }
func (a *fakeAdapter) Timeouts() adapter.Timeouts {
	return adapter.Timeouts{Load: time.Second, Response: time.Second}
}
func (a *fakeAdapter) Send(_ browser.Page, text string) bool {
	a.prompts = append(a.prompts, text)
	return a.sendOK
}

func fastConfig() interaction.Config {
	return interaction.Config{
		PollInterval:    5 * time.Millisecond,
		LoadTimeout:     100 * time.Millisecond,
		ResponseTimeout: 100 * time.Millisecond,
	}
}

func newTestSession(a adapter.Adapter, page *fakePage) (*Session, *int) {
	closes := 0
	launch := func() (browser.Page, func() error, error) {
		return page, func() error { closes++; return nil }, nil
	}
	return New(a, launch, fastConfig(), monitoring.New(), logging.NewNop()), &closes
}

func TestAskFirstTurn(t *testing.T) {
	a := &fakeAdapter{reply: "Hello", sendOK: true}
	page := &fakePage{}
	s, _ := newTestSession(a, page)

	prompt, answer, err := s.Ask(context.Background(), []reconcile.Message{
		{Role: "user", Content: "Hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[user] Hi", prompt)
	assert.Equal(t, "Hello", answer)
	assert.Equal(t, []string{"https://fake.test/"}, page.navigated)
	assert.True(t, s.Healthy())
}

func TestAskSecondTurnSendsOnlyDelta(t *testing.T) {
	a := &fakeAdapter{reply: "Hello", sendOK: true}
	s, _ := newTestSession(a, &fakePage{})

	first := []reconcile.Message{{Role: "user", Content: "Hi"}}
	_, _, err := s.Ask(context.Background(), first)
	require.NoError(t, err)

	second := append(first,
		reconcile.Message{Role: "assistant", Content: "Hello"},
		reconcile.Message{Role: "user", Content: "Tell me more"},
	)
	a.reply = "Sure"
	prompt, answer, err := s.Ask(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "[user] Tell me more", prompt)
	assert.Equal(t, "Sure", answer)
	assert.Equal(t, []string{"[user] Hi", "[user] Tell me more"}, a.prompts)
}

func TestAskEmptyHistory(t *testing.T) {
	a := &fakeAdapter{reply: "Hello", sendOK: true}
	s, _ := newTestSession(a, &fakePage{})
	_, _, err := s.Ask(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestAskInteractionFailureReturnsSentinel(t *testing.T) {
	a := &fakeAdapter{sendOK: false}
	s, _ := newTestSession(a, &fakePage{})

	_, answer, err := s.Ask(context.Background(), []reconcile.Message{
		{Role: "user", Content: "Hi"},
	})
	require.NoError(t, err, "interaction failures surface in the answer, not as errors")
	assert.True(t, interaction.IsFailure(answer))
}

func TestAskLaunchFailure(t *testing.T) {
	launch := func() (browser.Page, func() error, error) {
		return nil, nil, errors.New("no display")
	}
	s := New(&fakeAdapter{sendOK: true}, launch, fastConfig(), monitoring.New(), logging.NewNop())

	_, _, err := s.Ask(context.Background(), []reconcile.Message{{Role: "user", Content: "Hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser launch failed")
	assert.False(t, s.Healthy())
}

func TestRestartResetsLedgerAndRelaunches(t *testing.T) {
	a := &fakeAdapter{reply: "Hello", sendOK: true}
	page := &fakePage{}
	s, closes := newTestSession(a, page)

	first := []reconcile.Message{{Role: "user", Content: "Hi"}}
	_, _, err := s.Ask(context.Background(), first)
	require.NoError(t, err)

	require.NoError(t, s.Restart(context.Background()))
	assert.Equal(t, 1, *closes)
	assert.Equal(t, 2, len(page.navigated))
	assert.True(t, s.Healthy())

	// Same history again: no anchor survives the reset, so the full
	// history is relayed.
	prompt, _, err := s.Ask(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "[user] Hi", prompt)
}

func TestCloseTearsDown(t *testing.T) {
	a := &fakeAdapter{reply: "Hello", sendOK: true}
	s, closes := newTestSession(a, &fakePage{})

	_, _, err := s.Ask(context.Background(), []reconcile.Message{{Role: "user", Content: "Hi"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, 1, *closes)
	assert.False(t, s.Healthy())
}
