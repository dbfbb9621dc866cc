package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/services"
)

// UserHandler serves the directory views and profile updates.
type UserHandler struct {
	accounts  services.AccountServiceProvider
	directory services.DirectoryServiceProvider
	events    services.EventServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts services.AccountServiceProvider, directory services.DirectoryServiceProvider, events services.EventServiceProvider) *UserHandler {
	return &UserHandler{accounts: accounts, directory: directory, events: events}
}

// GetRecommendedUsers lists onboarded accounts the caller could befriend.
func (h *UserHandler) GetRecommendedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.RecommendedUsers(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetMyFriends lists the caller's friends.
func (h *UserHandler) GetMyFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.directory.MyFriends(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// GetBlockedUsers lists the accounts the caller has blocked.
func (h *UserHandler) GetBlockedUsers(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.directory.BlockedUsers(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocked)
}

// UpdateProfile applies an allow-listed partial profile update to the
// caller's own account.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.accounts.UpdateProfile(auth.UserID(r.Context()), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// GetNotifications returns the caller's recent relationship events.
func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.GetRecentEventsFor(auth.UserID(r.Context()), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
