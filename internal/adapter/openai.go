package adapter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tabpilot/tabpilot/internal/browser"
	"github.com/tabpilot/tabpilot/internal/markup"
)

const (
	openaiURL             = "https://chatgpt.com/"
	openaiVoiceSelector   = `button[data-testid="composer-speech-button"]`
	openaiInputSelector   = `div[contenteditable="true"]`
	openaiSubmitSelector  = `button[data-testid="send-button"]`
	openaiAnswerSelector  = `div[data-message-author-role]`
	openaiPreferSelector  = `button[data-testid="paragen-prefer-response-button"]`
	openaiRoleAttribute   = "data-message-author-role"
	openaiAssistantValue  = "assistant"
	openaiOverflowCodePre = `pre[class*="overflow-visible"]`
)

// NewOpenAI builds the adapter for chatgpt.com. The voice button only
// renders while the composer is idle, which makes it both the readiness
// probe and the completion marker. Answer containers carry the author
// role attribute, so the user's own echoed turn never reads as an
// answer.
func NewOpenAI() *Spec {
	return &Spec{
		Provider:       "openai",
		ChatURL:        openaiURL,
		ReadySelector:  openaiVoiceSelector,
		InputSelector:  openaiInputSelector,
		SubmitSelector: openaiSubmitSelector,
		AnswerSelector: openaiAnswerSelector,
		DoneSelector:   openaiVoiceSelector,
		AnswerRole:     AttrExpect{Name: openaiRoleAttribute, Value: openaiAssistantValue},
		Cleaner:        cleanOpenAI,
		BeforeExtract: func(p browser.Page) {
			time.Sleep(time.Second)
			// Side-by-side comparison prompts block the transcript until
			// one response is picked.
			if p.Count(openaiPreferSelector) > 0 {
				p.Click(openaiPreferSelector, 0)
				time.Sleep(time.Second)
			}
		},
		LoadTimeout:     2 * time.Minute,
		ResponseTimeout: 2 * time.Minute,
	}
}

// cleanOpenAI reduces each scrollable code panel to its code elements,
// dropping the language label and copy toolbar, then fences the code and
// strips the rest to plain text.
func cleanOpenAI(raw string) string {
	doc, err := markup.Parse(raw)
	if err != nil {
		return strings.TrimSpace(markup.Strip(raw))
	}
	doc.Find(openaiOverflowCodePre).Each(func(_ int, s *goquery.Selection) {
		var kept strings.Builder
		s.Find("code").Each(func(_ int, code *goquery.Selection) {
			if h, err := goquery.OuterHtml(code); err == nil {
				kept.WriteString(h)
			}
		})
		s.SetHtml(kept.String())
	})
	doc.Find("code").Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml(markup.Fence + "\n")
		s.AfterHtml("\n" + markup.Fence + "\n")
	})
	return strings.TrimSpace(markup.Strip(markup.Render(doc)))
}
