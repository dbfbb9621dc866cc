package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/services"
)

// FriendHandler exposes the relationship engine over HTTP.
type FriendHandler struct {
	relationships services.RelationshipServiceProvider
	directory     services.DirectoryServiceProvider
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(relationships services.RelationshipServiceProvider, directory services.DirectoryServiceProvider) *FriendHandler {
	return &FriendHandler{relationships: relationships, directory: directory}
}

// SendFriendRequest creates a pending request to the user in the URL.
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.relationships.SendFriendRequest(auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// AcceptFriendRequest accepts the request in the URL on behalf of the
// caller, who must be its recipient.
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.AcceptFriendRequest(auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CancelFriendRequest withdraws a pending request the caller sent.
func (h *FriendHandler) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.CancelFriendRequest(auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Unfriend removes the friendship with the user in the URL.
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.Unfriend(auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Block adds the user in the URL to the caller's block list.
func (h *FriendHandler) Block(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.BlockUser(auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Unblock removes the user in the URL from the caller's block list.
func (h *FriendHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.relationships.UnblockUser(auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetFriendRequests returns the caller's pending incoming requests together
// with the accepted history of requests they sent.
func (h *FriendHandler) GetFriendRequests(w http.ResponseWriter, r *http.Request) {
	callerID := auth.UserID(r.Context())

	incoming, err := h.directory.IncomingRequests(callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	accepted, err := h.directory.AcceptedSentRequests(callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"incomingRequests": incoming,
		"acceptedRequests": accepted,
	})
}

// GetOutgoingFriendRequests returns the caller's pending sent requests.
func (h *FriendHandler) GetOutgoingFriendRequests(w http.ResponseWriter, r *http.Request) {
	outgoing, err := h.directory.OutgoingRequests(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outgoing)
}
