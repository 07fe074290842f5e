package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	geminiURL            = "https://gemini.google.com/app"
	geminiSubmitSelector = `button.submit`
	geminiInputSelector  = `div.textarea >> nth=-1`
	geminiAnswerSelector = `xpath=//message-content`
	geminiDoneSelector   = `div.mic-button-container:not(.hidden)`
	geminiCodeBlock      = `div.code-block`
	geminiCodeInternal   = `div.formatted-code-block-internal-container`
)

// NewGemini builds the adapter for gemini.google.com. The microphone
// container is hidden while an answer streams and comes back when it
// finishes. Long generations are common here, hence the wide response
// deadline.
func NewGemini() *Spec {
	return &Spec{
		Provider:        "gemini",
		ChatURL:         geminiURL,
		ReadySelector:   geminiSubmitSelector,
		InputSelector:   geminiInputSelector,
		SubmitSelector:  geminiSubmitSelector,
		AnswerSelector:  geminiAnswerSelector,
		DoneSelector:    geminiDoneSelector,
		Cleaner:         cleanGemini,
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 1000 * time.Second,
	}
}

// cleanGemini rewrites each code block widget to just its code text,
// fenced, then flattens the document line by line. Widgets without a
// code container (still rendering) are dropped.
func cleanGemini(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find(geminiCodeBlock).Each(func(_ int, s *goquery.Selection) {
		var parts []string
		s.Find(geminiCodeInternal).Each(func(_ int, code *goquery.Selection) {
			parts = append(parts, code.Text())
		})
		if len(parts) == 0 {
			s.Empty()
			return
		}
		s.SetText(strings.Join(parts, ""))
		s.BeforeHtml("\n" + markup.Fence + "\n")
		s.AfterHtml("\n" + markup.Fence + "\n")
	})
	text := markup.FlattenSeparated(doc.Selection, "\n")
	return strings.TrimSpace(markup.CollapseNewlines(text))
}
