package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/chat"
)

// ChatHandler issues chat-provider tokens. Token issuance is load-bearing:
// without it the client cannot open a messaging session, so failures
// propagate unlike the best-effort profile sync.
type ChatHandler struct {
	provider chat.Provider
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(provider chat.Provider) *ChatHandler {
	return &ChatHandler{provider: provider}
}

// GetToken mints a chat token for the authenticated user.
func (h *ChatHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	token, err := h.provider.CreateToken(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create chat token")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
