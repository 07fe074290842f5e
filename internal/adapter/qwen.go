package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	qwenURL            = "https://chat.qwen.ai/"
	qwenReadySelector  = `xpath=//textarea[@id='chat-input']`
	qwenInputSelector  = `textarea`
	qwenSubmitSelector = `#send-message-button`
	qwenAnswerSelector = `xpath=//div[@id='response-content-container']`
	qwenHiddenSelector = `div[style*="display: none"]`
	// Misspelled class name as rendered by the site.
	qwenCodeContainer  = `div.code-cntainer`
	qwenEditorSelector = `div.cm-content`
)

// NewQwen builds the adapter for chat.qwen.ai.
func NewQwen() *Spec {
	return &Spec{
		Provider:        "qwen",
		ChatURL:         qwenURL,
		ReadySelector:   qwenReadySelector,
		InputSelector:   qwenInputSelector,
		SubmitSelector:  qwenSubmitSelector,
		AnswerSelector:  qwenAnswerSelector,
		Cleaner:         cleanQwen,
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

// cleanQwen drops hidden divs (duplicate off-screen renders of the
// answer), rewrites each code widget to its fenced editor content, then
// flattens line by line.
func cleanQwen(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find(qwenHiddenSelector).Each(func(_ int, s *goquery.Selection) {
		s.Empty()
	})
	doc.Find(qwenCodeContainer).Each(func(_ int, s *goquery.Selection) {
		var kept strings.Builder
		s.Find(qwenEditorSelector).Each(func(_ int, code *goquery.Selection) {
			h, err := goquery.OuterHtml(code)
			if err != nil {
				return
			}
			kept.WriteString("\n" + markup.Fence + "\n")
			kept.WriteString(h)
			kept.WriteString("\n" + markup.Fence + "\n")
		})
		s.SetHtml(kept.String())
	})
	text := markup.FlattenSeparated(doc.Selection, "\n")
	return strings.TrimSpace(markup.CollapseNewlines(text))
}
