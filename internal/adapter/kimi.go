package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	kimiURL            = "https://www.kimi.com/chat/"
	kimiInputSelector  = `xpath=//div[@class='chat-input-editor']`
	kimiSubmitSelector = `.send-button-container`
	kimiAnswerSelector = `xpath=//div[@class='markdown-container']`
	// Disabled but not in stop mode: the stream has finished.
	kimiDoneSelector = `div.send-button-container.disabled:not(.stop)`
	kimiCodeBlock    = `div.segment-code`
	kimiCodeContent  = `div.segment-code-content`
)

// NewKimi builds the adapter for kimi.com. The send button container
// turns into a stop control while streaming; once it is disabled again
// without the stop class, the answer is complete.
func NewKimi() *Spec {
	return &Spec{
		Provider:       "kimi",
		ChatURL:        kimiURL,
		ReadySelector:  kimiInputSelector,
		InputSelector:  kimiInputSelector,
		SubmitSelector: kimiSubmitSelector,
		AnswerSelector: kimiAnswerSelector,
		DoneSelector:   kimiDoneSelector,
		Cleaner:        cleanKimi,
		BeforeExtract: func(p browser.Page) {
			// The markdown container repaints for a while after the send
			// button settles.
			time.Sleep(3 * time.Second)
		},
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

// cleanKimi rewrites each code segment widget to its fenced content,
// then flattens the document line by line.
func cleanKimi(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find(kimiCodeBlock).Each(func(_ int, s *goquery.Selection) {
		var kept strings.Builder
		s.Find(kimiCodeContent).Each(func(_ int, code *goquery.Selection) {
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
