// Package api implements the OpenAI-compatible HTTP surface plus the
// plain single-message endpoint. Request and response shapes follow the
// chat completions wire format closely enough for stock OpenAI clients
// to work unmodified.
package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one chat turn. Content accepts both the bare string form
// and the multi-part array form; text parts are joined with blank
// lines, non-text parts are dropped.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Role = wire.Role
	if len(wire.Content) == 0 || string(wire.Content) == "null" {
		m.Content = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(wire.Content, &text); err == nil {
		m.Content = text
		return nil
	}
	var parts []contentPart
	if err := json.Unmarshal(wire.Content, &parts); err != nil {
		return fmt.Errorf("unsupported message content shape: %w", err)
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	m.Content = strings.Join(texts, "\n\n")
	return nil
}

// ChatRequest is the chat completions request body. Sampling fields are
// accepted for client compatibility and ignored: the provider website
// controls its own decoding.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	User        string    `json:"user,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is approximated by whitespace word counts. No tokenizer runs
// here and clients only use these numbers for display.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Message `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type StreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// NewChatResponse assembles the non-streaming envelope for one answer.
func NewChatResponse(model, prompt, answer string) ChatResponse {
	promptWords := wordCount(prompt)
	answerWords := wordCount(answer)
	return ChatResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Message:      Message{Role: "assistant", Content: answer},
			FinishReason: "stop",
		}},
		Usage: Usage{
			PromptTokens:     promptWords,
			CompletionTokens: answerWords,
			TotalTokens:      promptWords + answerWords,
		},
	}
}

// NewStreamResponse assembles the single content chunk of the
// two-frame stream.
func NewStreamResponse(model, answer string) StreamResponse {
	stop := "stop"
	return StreamResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []StreamChoice{{
			Delta:        Message{Role: "assistant", Content: answer},
			FinishReason: &stop,
		}},
	}
}

// ErrorBody follows the OpenAI error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   any    `json:"param"`
	Code    any    `json:"code"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewError(message, errType string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Message: message, Type: errType}}
}

// ModelInfo is one entry of the model listing.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// SimpleChatRequest is the body of the plain non-OpenAI endpoint.
type SimpleChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

type SimpleChatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
