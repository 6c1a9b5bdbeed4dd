// Package server hosts the chat actions over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/open-kbs/ai-invoice/internal/actions"
	"github.com/open-kbs/ai-invoice/internal/buildinfo"
)

const maxBody = 1 << 20

// Dispatcher runs chat actions.
type Dispatcher interface {
	DispatchLast(ctx context.Context, hook actions.Hook, messages []actions.Message) actions.Response
}

type handler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// New wires the chi router.
func New(d Dispatcher, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{dispatcher: d, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))

	r.Get("/health", h.health)
	r.With(RequestBodyLimit(maxBody)).Post("/chat", h.chat)
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	writeJSON(w, response{Status: "ok", Version: buildinfo.Version})
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

// chat dispatches the last message of the conversation. The hook comes from
// the ?hook= query parameter and defaults to response.
func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	hook := actions.HookResponse
	switch q := r.URL.Query().Get("hook"); q {
	case "", string(actions.HookResponse):
	case string(actions.HookRequest):
		hook = actions.HookRequest
	default:
		writeError(w, r, "hook must be request or response", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, "request body too large", "BODY_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	messages := make([]actions.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, actions.Message{Role: m.Role, Content: contentText(m.Content)})
	}
	writeJSON(w, h.dispatcher.DispatchLast(r.Context(), hook, messages))
}

// contentText flattens a message content. Plain strings are used as is;
// multi-part content is kept as compact JSON so upload patterns can match it.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
