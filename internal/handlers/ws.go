package handlers

import (
	"net/http"

	"github.com/pkalmar/ember/internal/auth"
	"github.com/pkalmar/ember/internal/middleware"
	"github.com/pkalmar/ember/internal/ws"
)

// WebSocketHandler admits realtime connections. The credential is verified
// before the upgrade; a rejected connection never touches the presence
// registry.
type WebSocketHandler struct {
	Hub    *ws.Hub
	Tokens *auth.TokenManager
}

func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ident, err := h.Tokens.VerifyToken(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws.ServeWs(h.Hub, w, r, ident)
}
