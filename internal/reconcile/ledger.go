// Package reconcile reconstructs the prompt to send from a stateless
// client's full message history. The provider tab already holds the
// conversation, so resending everything would duplicate context; the
// ledger remembers which message bodies have crossed the tab boundary
// and Delta derives the unseen suffix.
package reconcile

import (
	"fmt"
	"strings"
	"sync"
)

// Message is one conversational turn as the client sent it.
type Message struct {
	Role    string
	Content string
}

// Render formats a turn for prompt transfer, role tag first.
func (m Message) Render() string {
	return fmt.Sprintf("[%s] %s", m.Role, m.Content)
}

// Ledger records the trimmed bodies of every message already relayed to
// the provider tab, in both order and set form. Safe for concurrent
// use.
type Ledger struct {
	mu      sync.Mutex
	entries []string
	seen    map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Append records a message body as relayed. Bodies are trimmed before
// recording so client-side whitespace differences do not break matching
// later.
func (l *Ledger) Append(content string) {
	trimmed := strings.TrimSpace(content)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, trimmed)
	l.seen[trimmed] = struct{}{}
}

// Contains reports whether a body has been relayed before.
func (l *Ledger) Contains(content string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[strings.TrimSpace(content)]
	return ok
}

// Len returns the number of recorded bodies.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the recorded bodies in relay order.
func (l *Ledger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset drops all recorded bodies. Used when the tab is restarted and
// the provider-side conversation starts over.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.seen = make(map[string]struct{})
}

// Delta derives the prompt for the latest client request.
//
// It scans msgs from the end for the highest-index message whose body
// the ledger has seen; everything after that anchor is new and gets
// rendered with role tags, joined by blank lines. When no anchor exists
// (fresh tab, or client history rewritten) the entire history is
// rendered instead and matched is false.
func Delta(l *Ledger, msgs []Message) (prompt string, matched bool) {
	anchor := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if l.Contains(msgs[i].Content) {
			anchor = i
			break
		}
	}
	if anchor == -1 {
		return renderAll(msgs), false
	}
	prompt = renderAll(msgs[anchor+1:])
	if prompt == "" {
		// Nothing new after the anchor: fall back to the full history so
		// the provider still receives a prompt.
		return renderAll(msgs), false
	}
	return prompt, true
}

func renderAll(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Render())
	}
	return strings.Join(parts, "\n\n")
}
