package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkalmar/ember/internal/matching"
	"github.com/pkalmar/ember/internal/middleware"
	"github.com/pkalmar/ember/internal/models"
)

type SwipeHandler struct {
	Engine *matching.Engine
}

type SwipeRequest struct {
	SwipedUserID   int64  `json:"swipedUserId"`
	SwipeDirection string `json:"swipeDirection"`
}

type SwipeResponse struct {
	Result string        `json:"result"`
	Match  *models.Match `json:"match,omitempty"`
}

// Swipe handles POST /swipe. The response distinguishes a plain record from
// a new match and from a pair that was already matched.
func (h *SwipeHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.Engine.RecordSwipe(ident.UserID, req.SwipedUserID, req.SwipeDirection)
	if err != nil {
		switch {
		case errors.Is(err, matching.ErrInvalidDirection),
			errors.Is(err, matching.ErrSelfSwipe),
			errors.Is(err, matching.ErrInvalidUser):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to record swipe", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SwipeResponse{
		Result: string(outcome.Kind),
		Match:  outcome.Match,
	})
}
