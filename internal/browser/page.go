// Package browser owns the single live browser tab the service drives.
// It wraps Playwright behind a small Page surface so the interaction layer
// and provider adapters never touch the driver directly and tests can run
// against stubs.
package browser

import "time"

// Page is the minimal surface adapters need from a live browser tab.
// Selectors are CSS by default; prefix with "xpath=" for XPath.
//
// Lookup-style methods report absence as a zero/false result rather than an
// error: inside polling loops a missing element means "not yet", and only
// the surrounding deadline decides when that becomes a failure.
type Page interface {
	// Navigate loads the given URL and waits for the DOM to be ready.
	Navigate(url string) error

	// Count returns how many elements currently match the selector.
	Count(selector string) int

	// Click activates the nth matching element (0-based; negative counts
	// from the end, -1 being the last match in document order).
	Click(selector string, nth int) bool

	// Type inserts text into the first matching input control as one
	// atomic insert, replacing any existing content.
	Type(selector string, text string) bool

	// Attribute reads an attribute from the nth matching element.
	Attribute(selector string, nth int, name string) (string, bool)

	// Text reads the text content of the nth matching element.
	Text(selector string, nth int) (string, bool)

	// OuterHTML reads the outer markup of the nth matching element.
	OuterHTML(selector string, nth int) (string, bool)

	// Eval runs a script in the page context, best effort.
	Eval(script string) bool

	// Clipboard reads the system clipboard.
	Clipboard() (string, error)
}

// RetryText calls fn up to attempts times, spaced by interval, until it
// yields a non-empty string. Used for asynchronous affordances such as
// copy-to-clipboard buttons that populate the clipboard with a delay.
func RetryText(attempts int, interval time.Duration, fn func() (string, error)) string {
	for i := 0; i < attempts; i++ {
		time.Sleep(interval)
		text, err := fn()
		if err == nil && text != "" {
			return text
		}
	}
	return ""
}
