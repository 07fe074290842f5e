package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	deepseekURL            = "https://chat.deepseek.com/"
	deepseekSubmitSelector = `div[role="button"]`
	deepseekInputSelector  = `textarea`
	deepseekAnswerSelector = `xpath=//div[contains(@class, 'ds-markdown') and contains(@class, 'ds-markdown--block')]`
	deepseekCodeBlock      = `div.md-code-block`
)

// NewDeepSeek builds the adapter for chat.deepseek.com. Submit is a
// role=button div rather than a real button element.
func NewDeepSeek() *Spec {
	return &Spec{
		Provider:        "deepseek",
		ChatURL:         deepseekURL,
		ReadySelector:   deepseekSubmitSelector,
		InputSelector:   deepseekInputSelector,
		SubmitSelector:  deepseekSubmitSelector,
		AnswerSelector:  deepseekAnswerSelector,
		Cleaner:         cleanDeepSeek,
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

// cleanDeepSeek keeps only the pre elements inside each code block
// widget, dropping the language banner and copy controls, then fences
// the pres and strips the rest to plain text.
func cleanDeepSeek(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find(deepseekCodeBlock).Each(func(_ int, s *goquery.Selection) {
		var kept strings.Builder
		s.Find("pre").Each(func(_ int, pre *goquery.Selection) {
			if h, err := goquery.OuterHtml(pre); err == nil {
				kept.WriteString(h)
			}
		})
		s.SetHtml(kept.String())
	})
	doc.Find("pre").Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n" + markup.Fence + "\n")
		s.AfterHtml("\n" + markup.Fence + "\n")
	})
	return strings.TrimSpace(markup.Strip(markup.Render(doc)))
}
