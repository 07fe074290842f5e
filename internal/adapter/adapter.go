// Package adapter holds the per-provider bundles that drive a chat site
// through a browser tab: readiness probe, prompt submission, answer
// detection, answer extraction, and markup cleanup. Each provider is a
// plain configuration value behind one capability interface; the
// interaction layer is adapter-agnostic.
package adapter

import (
	"strings"
	"time"

	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/markup"
)

// Adapter is the capability set every provider implements.
//
// The boolean predicates never fail hard: a missing element reads as
// "not yet" and the interaction state machine's deadlines decide when
// that becomes a terminal failure.
type Adapter interface {
	// Name is the provider identifier used for selection and metrics.
	Name() string

	// URL is the chat page to load at session start.
	URL() string

	// IsReady reports whether the chat input is usable.
	IsReady(p browser.Page) bool

	// Send injects text into the input control and activates the submit
	// control. When multiple submit controls match, the last one in
	// document order is activated.
	Send(p browser.Page, text string) bool

	// IsAnswered reports whether a finished answer is present.
	IsAnswered(p browser.Page) bool

	// ExtractAnswer reads the last answer and returns its cleaned text,
	// or empty string when no answer container exists.
	ExtractAnswer(p browser.Page) string

	// CleanMarkup normalizes raw answer markup to plain text with fenced
	// code blocks.
	CleanMarkup(raw string) string

	// Timeouts returns the provider's load and response deadlines.
	Timeouts() Timeouts
}

// Timeouts holds the per-provider interaction deadlines.
type Timeouts struct {
	Load     time.Duration
	Response time.Duration
}

// AttrExpect requires the last answer container's attribute to carry a
// specific value, excluding echoes of the user's own turn.
type AttrExpect struct {
	Name  string
	Value string
}

// Spec is an immutable provider configuration. Selectors are CSS by
// default, "xpath=" prefixed for XPath. A Spec with only the selector
// fields set behaves like the common provider shape; the hook fields
// cover provider idiosyncrasies without changing the interface.
type Spec struct {
	Provider string
	ChatURL  string

	// ReadySelector marks the chat input as usable when present.
	ReadySelector string
	// InputSelector locates the prompt input control.
	InputSelector string
	// SubmitSelector locates the submit control(s).
	SubmitSelector string
	// AnswerSelector locates answer containers.
	AnswerSelector string

	// DoneSelector, when set, must also match before the answer counts
	// as finished (e.g. a re-enabled submit control or a microphone
	// button that reappears once streaming stops).
	DoneSelector string

	// AnswerRole, when set, requires the last answer container's
	// attribute to equal the given value.
	AnswerRole AttrExpect

	// Cleaner overrides the default markup cleaner.
	Cleaner func(raw string) string

	// BeforeExtract runs between answer detection and extraction, for
	// settle delays and pre-extraction clicks.
	BeforeExtract func(p browser.Page)

	// AfterExtract runs once the answer has been read, for page cleanup
	// such as scrolling the transcript back to the bottom.
	AfterExtract func(p browser.Page)

	// Extract overrides the default last-container outerHTML extraction,
	// e.g. for clipboard-based providers.
	Extract func(p browser.Page) string

	LoadTimeout     time.Duration
	ResponseTimeout time.Duration
}

func (s *Spec) Name() string { return s.Provider }

func (s *Spec) URL() string { return s.ChatURL }

func (s *Spec) Timeouts() Timeouts {
	return Timeouts{Load: s.LoadTimeout, Response: s.ResponseTimeout}
}

func (s *Spec) IsReady(p browser.Page) bool {
	return p.Count(s.ReadySelector) > 0
}

func (s *Spec) Send(p browser.Page, text string) bool {
	if p.Count(s.InputSelector) == 0 {
		return false
	}
	if !p.Type(s.InputSelector, text) {
		return false
	}
	n := p.Count(s.SubmitSelector)
	if n == 0 {
		return false
	}
	// Some layouts render the submit control more than once; the last
	// match in document order is the live one.
	return p.Click(s.SubmitSelector, n-1)
}

func (s *Spec) IsAnswered(p browser.Page) bool {
	if s.DoneSelector != "" && p.Count(s.DoneSelector) == 0 {
		return false
	}
	n := p.Count(s.AnswerSelector)
	if n == 0 {
		return false
	}
	if s.AnswerRole.Name != "" {
		value, ok := p.Attribute(s.AnswerSelector, n-1, s.AnswerRole.Name)
		return ok && value == s.AnswerRole.Value
	}
	return true
}

func (s *Spec) ExtractAnswer(p browser.Page) string {
	if s.BeforeExtract != nil {
		s.BeforeExtract(p)
	}
	answer := s.extract(p)
	if s.AfterExtract != nil {
		s.AfterExtract(p)
	}
	return answer
}

func (s *Spec) extract(p browser.Page) string {
	if s.Extract != nil {
		return strings.TrimSpace(s.Extract(p))
	}
	n := p.Count(s.AnswerSelector)
	if n == 0 {
		return ""
	}
	raw, ok := p.OuterHTML(s.AnswerSelector, n-1)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s.CleanMarkup(raw))
}

func (s *Spec) CleanMarkup(raw string) string {
	if s.Cleaner != nil {
		return s.Cleaner(raw)
	}
	return markup.CleanDefault(raw)
}

var _ Adapter = (*Spec)(nil)
