package browser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/logging"
)

// Action timeout for individual element operations, in milliseconds.
// Short on purpose: the interaction layer owns the long deadlines.
const actionTimeoutMs = 5000.0

// Options configures the browser session.
type Options struct {
	Headless   bool
	UseProfile bool
	ProfileDir string
	UserAgent  string
}

// Handle is the live Playwright-backed browser tab. One per process,
// lazily created, explicitly closed on shutdown or restart.
type Handle struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	log     *logging.Logger
}

// Launch starts Chromium and opens a fresh tab. With UseProfile set the
// browser runs on a persistent profile directory so provider logins and
// cookies survive restarts.
func Launch(opts Options, log *logging.Logger) (*Handle, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	h := &Handle{pw: pw, log: log}

	if opts.UseProfile && opts.ProfileDir != "" {
		dir, err := filepath.Abs(opts.ProfileDir)
		if err == nil {
			err = os.MkdirAll(dir, 0o755)
		}
		if err != nil {
			pw.Stop()
			return nil, fmt.Errorf("failed to prepare browser profile %s: %w", opts.ProfileDir, err)
		}
		ctx, err := pw.Chromium.LaunchPersistentContext(dir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless:  playwright.Bool(opts.Headless),
			UserAgent: playwright.String(opts.UserAgent),
		})
		if err != nil {
			pw.Stop()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		h.context = ctx
		if pages := ctx.Pages(); len(pages) > 0 {
			h.page = pages[0]
		} else {
			page, err := ctx.NewPage()
			if err != nil {
				ctx.Close()
				pw.Stop()
				return nil, fmt.Errorf("failed to open page: %w", err)
			}
			h.page = page
		}
	} else {
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
		})
		if err != nil {
			pw.Stop()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
			UserAgent: playwright.String(opts.UserAgent),
		})
		if err != nil {
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
		page, err := ctx.NewPage()
		if err != nil {
			ctx.Close()
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		h.browser = browser
		h.context = ctx
		h.page = page
	}

	log.Info("Browser session started",
		zap.Bool("headless", opts.Headless),
		zap.Bool("profile", opts.UseProfile),
	)
	return h, nil
}

// Navigate loads the given URL.
func (h *Handle) Navigate(url string) error {
	_, err := h.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Count returns how many elements match the selector right now, without
// waiting for any to appear.
func (h *Handle) Count(selector string) int {
	n, err := h.page.Locator(selector).Count()
	if err != nil {
		return 0
	}
	return n
}

// Click activates the nth matching element; -1 clicks the last match.
func (h *Handle) Click(selector string, nth int) bool {
	loc := h.nth(selector, nth)
	if loc == nil {
		return false
	}
	err := loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(actionTimeoutMs)})
	if err != nil {
		h.log.Debug("Click failed", zap.String("selector", selector), zap.Error(err))
		return false
	}
	return true
}

// Type fills the first matching input control with text in one atomic
// insert. Works for both textarea and contenteditable inputs.
func (h *Handle) Type(selector string, text string) bool {
	loc := h.page.Locator(selector).First()
	if err := loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(actionTimeoutMs)}); err != nil {
		h.log.Debug("Input focus failed", zap.String("selector", selector), zap.Error(err))
		return false
	}
	if err := loc.Fill(text, playwright.LocatorFillOptions{Timeout: playwright.Float(actionTimeoutMs)}); err != nil {
		h.log.Debug("Input fill failed", zap.String("selector", selector), zap.Error(err))
		return false
	}
	return true
}

// Attribute reads an attribute from the nth matching element.
func (h *Handle) Attribute(selector string, nth int, name string) (string, bool) {
	loc := h.nth(selector, nth)
	if loc == nil {
		return "", false
	}
	value, err := loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(actionTimeoutMs)})
	if err != nil {
		return "", false
	}
	return value, true
}

// Text reads the text content of the nth matching element.
func (h *Handle) Text(selector string, nth int) (string, bool) {
	loc := h.nth(selector, nth)
	if loc == nil {
		return "", false
	}
	text, err := loc.TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(actionTimeoutMs)})
	if err != nil {
		return "", false
	}
	return text, true
}

// OuterHTML reads the outer markup of the nth matching element.
func (h *Handle) OuterHTML(selector string, nth int) (string, bool) {
	loc := h.nth(selector, nth)
	if loc == nil {
		return "", false
	}
	raw, err := loc.Evaluate("el => el.outerHTML", nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(actionTimeoutMs)})
	if err != nil {
		return "", false
	}
	html, ok := raw.(string)
	return html, ok
}

// Eval runs a script in the page context, best effort.
func (h *Handle) Eval(script string) bool {
	if _, err := h.page.Evaluate(script); err != nil {
		h.log.Debug("Script evaluation failed", zap.Error(err))
		return false
	}
	return true
}

// Clipboard reads the system clipboard. The browser runs headed against
// the same display, so provider copy buttons land here.
func (h *Handle) Clipboard() (string, error) {
	return clipboard.ReadAll()
}

// Close tears down the tab, the browser, and the driver.
func (h *Handle) Close() error {
	if h.page != nil {
		_ = h.page.Close() // Ignore errors, continue cleanup
	}
	if h.context != nil {
		_ = h.context.Close()
	}
	if h.browser != nil {
		_ = h.browser.Close()
	}
	if h.pw != nil {
		if err := h.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	h.log.Info("Browser session closed")
	return nil
}

var _ Page = (*Handle)(nil)

func (h *Handle) nth(selector string, nth int) playwright.Locator {
	loc := h.page.Locator(selector)
	if nth < 0 {
		return loc.Last()
	}
	return loc.Nth(nth)
}
