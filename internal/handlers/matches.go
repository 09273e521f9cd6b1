package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pkalmar/ember/internal/middleware"
	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store"
)

type MatchHandler struct {
	Store store.Store
}

// GetMatches handles GET /matches: the caller's matches with partner
// summaries. Always an array, never null.
func (h *MatchHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summaries, err := h.Store.GetUserMatches(ident.UserID)
	if err != nil {
		http.Error(w, "Failed to load matches", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []models.MatchSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// GetMatchMessages handles GET /matches/{id}/messages: ordered history for a
// match the caller belongs to, 403 otherwise.
func (h *MatchHandler) GetMatchMessages(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || matchID <= 0 {
		http.Error(w, "Invalid match id", http.StatusBadRequest)
		return
	}

	match, err := h.Store.GetMatchByID(matchID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load match", http.StatusInternalServerError)
		return
	}
	if !match.HasUser(ident.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	messages, err := h.Store.GetMatchMessages(matchID)
	if err != nil {
		http.Error(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
