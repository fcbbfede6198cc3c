package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/grootai/internal/api"
	"github.com/cloo-solutions/grootai/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ConversationStore interface {
	Set(id string, turns []domain.Turn) error
	Append(id string, turns ...domain.Turn) error
	Get(id string) ([]domain.Turn, error)
	Delete(id string) error
}

type ConversationHandler struct {
	store ConversationStore
}

func NewConversationHandler(store ConversationStore) *ConversationHandler {
	return &ConversationHandler{store: store}
}

type ConversationRequest struct {
	Turns []domain.Turn `json:"turns"`
}

type ConversationResponse struct {
	ID    string        `json:"id"`
	Turns []domain.Turn `json:"turns"`
}

// Put replaces the history of a conversation.
func (h *ConversationHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadBody(w, err)
		return
	}
	if req.Turns == nil {
		req.Turns = []domain.Turn{}
	}

	if err := h.store.Set(id, req.Turns); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ConversationResponse{ID: id, Turns: req.Turns})
}

// Append adds turns to a conversation, creating it if it does not exist.
func (h *ConversationHandler) Append(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadBody(w, err)
		return
	}
	if len(req.Turns) == 0 {
		api.Error(w, http.StatusBadRequest, "turns are required")
		return
	}

	if err := h.store.Append(id, req.Turns...); err != nil {
		api.HandleError(w, err)
		return
	}

	turns, err := h.store.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ConversationResponse{ID: id, Turns: turns})
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	turns, err := h.store.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ConversationResponse{ID: id, Turns: turns})
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(id); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
