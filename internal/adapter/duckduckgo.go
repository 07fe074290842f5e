package adapter

import (
	"strings"
	"time"

	"github.com/tabpilot/tabpilot/internal/browser"
)

const (
	duckURL            = "https://duck.ai/"
	duckSubmitSelector = `button[type="submit"][aria-label="Send"]`
	duckInputSelector  = `textarea`
	duckAnswerSelector = `xpath=//div[@heading]`
	duckCopySelector   = `[data-copyairesponse="true"]`

	duckCopyAttempts = 5
	duckCopyInterval = time.Second
)

// The answer column is a nested scroll container; the copy button only
// renders once its answer is scrolled into view.
const duckScrollScript = `(() => {
	const form = document.querySelector('form[autocomplete="off"]');
	const column = form && form.closest('div');
	const scroller = column && column.querySelector('div');
	if (scroller) { scroller.scrollTop = scroller.scrollHeight; }
})()`

// NewDuckDuckGo builds the adapter for duck.ai. The page renders
// answers into a canvas-like widget with no stable markup, so
// extraction goes through the provider's own copy button and the system
// clipboard instead of outerHTML.
func NewDuckDuckGo() *Spec {
	return &Spec{
		Provider:        "duckduckgo",
		ChatURL:         duckURL,
		ReadySelector:   duckSubmitSelector,
		InputSelector:   duckInputSelector,
		SubmitSelector:  duckSubmitSelector,
		AnswerSelector:  duckAnswerSelector,
		DoneSelector:    duckSubmitSelector,
		Cleaner:         cleanDuckDuckGo,
		Extract:         extractDuckDuckGo,
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

func extractDuckDuckGo(p browser.Page) string {
	p.Eval(duckScrollScript)
	text := browser.RetryText(duckCopyAttempts, duckCopyInterval, func() (string, error) {
		if n := p.Count(duckCopySelector); n > 0 {
			p.Click(duckCopySelector, n-1)
			time.Sleep(500 * time.Millisecond)
		}
		return p.Clipboard()
	})
	return cleanDuckDuckGo(text)
}

// cleanDuckDuckGo normalizes clipboard line endings. The copy button
// already yields plain text, so no markup surgery is needed.
func cleanDuckDuckGo(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
}
