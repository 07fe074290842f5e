package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tabpilot/tabpilot/internal/interaction"
	"github.com/tabpilot/tabpilot/internal/logging"
	"github.com/tabpilot/tabpilot/internal/reconcile"
)

// Asker is the session capability the handlers need. Concrete sessions
// live in the session package; tests swap in scripted fakes.
type Asker interface {
	Ask(ctx context.Context, msgs []reconcile.Message) (prompt, answer string, err error)
	Restart(ctx context.Context) error
	Provider() string
	Healthy() bool
}

// Handlers serves the HTTP surface for one session.
type Handlers struct {
	session Asker
	model   string
	stream  bool
	version string
	log     *logging.Logger
}

func NewHandlers(session Asker, model string, stream bool, version string, log *logging.Logger) *Handlers {
	return &Handlers{
		session: session,
		model:   model,
		stream:  stream,
		version: version,
		log:     log,
	}
}

// Root describes the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":  "tabpilot",
		"version":  h.version,
		"provider": h.session.Provider(),
		"model":    h.model,
		"endpoints": []string{
			"GET /health",
			"GET /models",
			"POST /chat/completions",
			"POST /chat",
			"POST /restart",
			"GET /metrics",
		},
	})
}

// Health reports liveness plus whether the provider tab has come up.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "tabpilot",
		"provider": h.session.Provider(),
		"ready":    h.session.Healthy(),
	})
}

// Models lists the single model this bridge exposes.
func (h *Handlers) Models(c *gin.Context) {
	c.JSON(http.StatusOK, ModelList{
		Object: "list",
		Data: []ModelInfo{{
			ID:      h.model,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "tabpilot",
		}},
	})
}

// ChatCompletions is the OpenAI-compatible entry point. Interaction
// failures still return 200 with the sentinel answer so stateless
// clients render them inline; only transport-level problems map to
// error statuses.
func (h *Handlers) ChatCompletions(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewError(fmt.Sprintf("invalid request body: %v", err), "invalid_request_error"))
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, NewError("messages must not be empty", "invalid_request_error"))
		return
	}

	msgs := make([]reconcile.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = reconcile.Message{Role: m.Role, Content: m.Content}
	}

	model := req.Model
	if model == "" {
		model = h.model
	}

	prompt, answer, err := h.session.Ask(c.Request.Context(), msgs)
	if err != nil {
		h.log.Error("Chat completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewError(err.Error(), "server_error"))
		return
	}

	// Stream when the client asks or the server default is on.
	if req.Stream || h.stream {
		h.streamAnswer(c, model, answer)
		return
	}
	c.JSON(http.StatusOK, NewChatResponse(model, prompt, answer))
}

// streamAnswer emits the answer as a two-frame SSE stream: one chunk
// carrying the whole delta, then the DONE marker. The answer only
// exists once the provider finishes, so there is nothing to stream
// incrementally.
func (h *Handlers) streamAnswer(c *gin.Context, model, answer string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	chunk, err := sonic.Marshal(NewStreamResponse(model, answer))
	if err != nil {
		h.log.Error("Stream chunk encoding failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", chunk)
	c.Writer.Flush()
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// SimpleChat is the plain one-message endpoint: no history, no OpenAI
// envelope.
func (h *Handlers) SimpleChat(c *gin.Context) {
	var req SimpleChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewError(fmt.Sprintf("invalid request body: %v", err), "invalid_request_error"))
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, NewError("message must not be empty", "invalid_request_error"))
		return
	}
	model := req.Model
	if model == "" {
		model = h.model
	}

	_, answer, err := h.session.Ask(c.Request.Context(), []reconcile.Message{
		{Role: "user", Content: req.Message},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, SimpleChatResponse{Model: model, Error: err.Error()})
		return
	}
	if interaction.IsFailure(answer) {
		c.JSON(http.StatusOK, SimpleChatResponse{Model: model, Error: answer})
		return
	}
	c.JSON(http.StatusOK, SimpleChatResponse{Response: answer, Model: model, Success: true})
}

// RestartSession reloads the provider tab and clears the relay ledger.
func (h *Handlers) RestartSession(c *gin.Context) {
	if err := h.session.Restart(c.Request.Context()); err != nil {
		h.log.Error("Session restart failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewError(err.Error(), "server_error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restarted", "provider": h.session.Provider()})
}

// NotFound mirrors the OpenAI error envelope for unknown routes.
func (h *Handlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, NewError(
		fmt.Sprintf("unknown route: %s %s", c.Request.Method, c.Request.URL.Path),
		"invalid_request_error",
	))
}
