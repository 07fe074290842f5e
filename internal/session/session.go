// Package session owns the single provider tab: lazy browser launch,
// page navigation, the relay ledger, and serialized round trips. One
// session maps to one provider conversation; concurrent API calls queue
// on its lock because the tab can only hold one interaction at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/adapter"
	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/interaction"
	"github.com/tabpilot/tabpilot/internal/logging"
	"github.com/tabpilot/tabpilot/internal/monitoring"
	"github.com/tabpilot/tabpilot/internal/reconcile"
)

// LaunchFunc opens a browser page and returns it with its closer.
// Injected so tests run without a real browser.
type LaunchFunc func() (browser.Page, func() error, error)

var ErrNoMessages = errors.New("request carries no messages")

// Session drives one provider tab.
type Session struct {
	mu      sync.Mutex
	adapter adapter.Adapter
	launch  LaunchFunc
	cfg     interaction.Config

	page    browser.Page
	closeFn func() error
	machine *interaction.Machine
	ledger  *reconcile.Ledger
	ready   bool

	metrics *monitoring.Metrics
	log     *logging.Logger
}

func New(a adapter.Adapter, launch LaunchFunc, cfg interaction.Config, metrics *monitoring.Metrics, log *logging.Logger) *Session {
	return &Session{
		adapter: a,
		launch:  launch,
		cfg:     cfg,
		ledger:  reconcile.NewLedger(),
		metrics: metrics,
		log:     log,
	}
}

// Provider returns the provider name this session drives.
func (s *Session) Provider() string { return s.adapter.Name() }

// Healthy reports whether the tab has been launched and reached the
// ready state at least once.
func (s *Session) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Ask relays the client's message history to the provider tab and
// returns the prompt actually sent and the provider's answer.
//
// Interaction failures are not errors here: the answer carries the
// failure sentinel and the caller decides how to surface it. A non-nil
// error means the tab itself could not be brought up.
func (s *Session) Ask(ctx context.Context, msgs []reconcile.Message) (prompt, answer string, err error) {
	if len(msgs) == 0 {
		return "", "", ErrNoMessages
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(ctx); err != nil {
		return "", "", err
	}

	prompt, matched := reconcile.Delta(s.ledger, msgs)
	if !matched {
		s.log.Debug("No ledger anchor, relaying full history",
			zap.String("provider", s.adapter.Name()),
			zap.Int("messages", len(msgs)),
		)
	}
	// Record the latest turn before the round trip so a retry of the
	// same history reduces to its unseen tail.
	s.ledger.Append(msgs[len(msgs)-1].Content)

	res := s.machine.Run(ctx, prompt)
	s.metrics.ObserveInteraction(s.adapter.Name(), res.State.String(), res.Elapsed)

	if res.Err() == nil {
		s.ledger.Append(res.Text)
	}
	s.metrics.LedgerEntries.Set(float64(s.ledger.Len()))
	return prompt, res.Message(), nil
}

// Restart tears the tab down, clears the ledger, and brings a fresh tab
// up on the provider page.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardown()
	s.ledger.Reset()
	s.metrics.LedgerEntries.Set(0)
	s.log.Info("Session restarting", zap.String("provider", s.adapter.Name()))
	return s.ensureReady(ctx)
}

// Close shuts the tab down. The session is unusable afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
	return nil
}

// ensureReady lazily launches the browser, navigates to the provider
// page, and waits for the input to come up. Caller holds the lock.
func (s *Session) ensureReady(ctx context.Context) error {
	if s.page != nil {
		return nil
	}
	page, closeFn, err := s.launch()
	if err != nil {
		return fmt.Errorf("browser launch failed: %w", err)
	}
	if err := page.Navigate(s.adapter.URL()); err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return fmt.Errorf("failed to open %s: %w", s.adapter.URL(), err)
	}
	s.page = page
	s.closeFn = closeFn
	s.machine = interaction.New(s.adapter, page, s.cfg, s.log)

	if err := s.machine.WaitReady(ctx); err != nil {
		s.teardown()
		return fmt.Errorf("provider %s not ready: %w", s.adapter.Name(), err)
	}
	s.ready = true
	s.log.Info("Provider tab ready",
		zap.String("provider", s.adapter.Name()),
		zap.String("url", s.adapter.URL()),
	)
	return nil
}

func (s *Session) teardown() {
	if s.closeFn != nil {
		_ = s.closeFn()
	}
	s.page = nil
	s.closeFn = nil
	s.machine = nil
	s.ready = false
}
