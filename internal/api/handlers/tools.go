package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloo-solutions/grootai/internal/api"
	"github.com/cloo-solutions/grootai/internal/conversation"
	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/cloo-solutions/grootai/internal/tools"
	"github.com/go-chi/chi/v5"
	openai "github.com/sashabaranov/go-openai"
)

type ToolInvoker interface {
	Definitions() []openai.Tool
	Guidance() string
	Invoke(ctx context.Context, name string, call tools.Call) domain.Outcome
}

// ConversationResolver hands out handles for stored conversations.
type ConversationResolver interface {
	Handle(id string) *conversation.Handle
}

type ToolsHandler struct {
	invoker       ToolInvoker
	conversations ConversationResolver
}

func NewToolsHandler(invoker ToolInvoker, conversations ConversationResolver) *ToolsHandler {
	return &ToolsHandler{invoker: invoker, conversations: conversations}
}

type ListToolsResponse struct {
	Tools    []openai.Tool `json:"tools"`
	Guidance string        `json:"guidance"`
}

// InvokeToolRequest selects the conversation a call runs in either by stored
// ID or by an inline history. ConversationID wins when both are set.
type InvokeToolRequest struct {
	Arguments      json.RawMessage `json:"arguments,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	History        []domain.Turn   `json:"history,omitempty"`
}

func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, ListToolsResponse{
		Tools:    h.invoker.Definitions(),
		Guidance: h.invoker.Guidance(),
	})
}

func (h *ToolsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req InvokeToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.BadBody(w, err)
		return
	}

	call := tools.Call{Arguments: req.Arguments}
	switch {
	case req.ConversationID != "":
		if h.conversations == nil {
			api.HandleError(w, domain.ErrConversationNotFound)
			return
		}
		call.Conversation = h.conversations.Handle(req.ConversationID)
	case req.History != nil:
		if err := domain.ValidateTurns(req.History); err != nil {
			api.HandleError(w, err)
			return
		}
		call.Conversation = conversation.Static(req.History)
	}

	api.Outcome(w, h.invoker.Invoke(r.Context(), name, call))
}
