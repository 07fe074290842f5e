package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	mistralURL            = "https://chat.mistral.ai/"
	mistralSubmitSelector = `button[type="submit"]`
	mistralInputSelector  = `textarea[name="message.text"]`
	mistralAnswerSelector = `div.prose`
	mistralScrollSelector = `button.disabled\:pointer-auto[type="button"]`
)

// NewMistral builds the adapter for chat.mistral.ai. The submit control
// doubles as the completion marker: it reappears once the answer stream
// ends.
func NewMistral() *Spec {
	return &Spec{
		Provider:       "mistral",
		ChatURL:        mistralURL,
		ReadySelector:  mistralSubmitSelector,
		InputSelector:  mistralInputSelector,
		SubmitSelector: mistralSubmitSelector,
		AnswerSelector: mistralAnswerSelector,
		DoneSelector:   mistralSubmitSelector,
		Cleaner:        cleanMistral,
		AfterExtract: func(p browser.Page) {
			// Scroll-to-bottom affordance, best effort.
			if n := p.Count(mistralScrollSelector); n > 0 {
				p.Click(mistralScrollSelector, n-1)
			}
		},
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

// cleanMistral empties sticky toolbars around code blocks, fences every
// code element, and strips the rest to plain text.
func cleanMistral(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find("div.sticky").Each(func(_ int, s *goquery.Selection) {
		s.Empty()
	})
	doc.Find("code").Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml(markup.Fence + "\n")
		s.AfterHtml("\n" + markup.Fence + "\n")
	})
	return strings.TrimSpace(markup.Strip(markup.Render(doc)))
}
