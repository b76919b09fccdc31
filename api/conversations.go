package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"multichat/chat"
)

// chatError maps chat errors to HTTP status codes.
func (h *handler) chatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		http.Error(w, "conversation not found", http.StatusNotFound)
	case errors.Is(err, chat.ErrNoModels), errors.Is(err, chat.ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("chat request failed", slog.Any("error", err))
		http.Error(w, "chat request failed", http.StatusInternalServerError)
	}
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chats.List())
}

func (h *handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string   `json:"title"`
		Models []string `json:"models"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, h.chats.Create(req.Title, req.Models))
}

func (h *handler) getConversation(w http.ResponseWriter, r *http.Request) {
	c, err := h.chats.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) updateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  *string  `json:"title"`
		Models []string `json:"models"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	c, err := h.chats.Get(id)
	if req.Title != nil && err == nil {
		c, err = h.chats.Rename(id, *req.Title)
	}
	if req.Models != nil && err == nil {
		c, err = h.chats.SetModels(id, req.Models)
	}
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.chats.Delete(chi.URLParam(r, "id")); err != nil {
		h.chatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	msgs, err := h.chats.Send(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		h.chatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
