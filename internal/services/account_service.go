package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/meeterup/meeterup-be/internal/chat"
	"github.com/meeterup/meeterup-be/internal/models"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = 10 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ProfileUpdate carries the profile fields a user may change. Nil fields
// are left untouched. Relationship sets and credential fields are not
// reachable through this type on purpose.
type ProfileUpdate struct {
	FullName         *string `json:"fullName"`
	Bio              *string `json:"bio"`
	ProfilePic       *string `json:"profilePic"`
	NativeLanguage   *string `json:"nativeLanguage"`
	LearningLanguage *string `json:"learningLanguage"`
	Location         *string `json:"location"`
}

// OnboardingProfile is the payload completing a new account's profile.
type OnboardingProfile struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	ProfilePic       string `json:"profilePic"`
}

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	CreateUser(fullName, email, password string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	UpdateProfile(id string, update ProfileUpdate) (models.User, error)
	Onboard(id string, profile OnboardingProfile) (models.User, error)
	IssuePasswordResetToken(email string) (string, error)
	ConsumePasswordResetToken(token, newPassword string) error
}

// AccountService provides business logic for account management.
type AccountService struct {
	db   *sql.DB
	chat chat.Provider
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *sql.DB, chatProvider chat.Provider) *AccountService {
	return &AccountService{db: db, chat: chatProvider}
}

// CreateUser registers a new account, hashing the password before it is
// persisted. When no avatar is supplied a deterministic one is derived
// from the email address.
func (s *AccountService) CreateUser(fullName, email, password string) (models.User, error) {
	if fullName == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if !emailPattern.MatchString(email) {
		return models.User{}, fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists); err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		ProfilePic:   avatarFor(email),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, full_name, email, password_hash, profile_pic, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.FullName, user.Email, user.PasswordHash, user.ProfilePic, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	s.syncChatProfile(user)

	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown email and wrong
// password fail identically so the response leaks nothing about which.
func (s *AccountService) AuthenticateUser(email, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, full_name, email, password_hash, bio, profile_pic, native_language, learning_language, location, is_onboarded, created_at, updated_at FROM users WHERE email = ?",
		email,
	)
	err := scanUser(row, &user)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *AccountService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, full_name, email, password_hash, bio, profile_pic, native_language, learning_language, location, is_onboarded, created_at, updated_at FROM users WHERE id = ?",
		id,
	)
	err := scanUser(row, &user)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies the allow-listed profile fields. Fields outside
// ProfileUpdate cannot be written through this path.
func (s *AccountService) UpdateProfile(id string, update ProfileUpdate) (models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	if update.FullName != nil {
		if *update.FullName == "" {
			return models.User{}, fmt.Errorf("%w: fullName cannot be empty", ErrValidation)
		}
		user.FullName = *update.FullName
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.ProfilePic != nil {
		user.ProfilePic = *update.ProfilePic
	}
	if update.NativeLanguage != nil {
		user.NativeLanguage = *update.NativeLanguage
	}
	if update.LearningLanguage != nil {
		user.LearningLanguage = *update.LearningLanguage
	}
	if update.Location != nil {
		user.Location = *update.Location
	}

	_, err = s.db.Exec(
		"UPDATE users SET full_name = ?, bio = ?, profile_pic = ?, native_language = ?, learning_language = ?, location = ?, updated_at = ? WHERE id = ?",
		user.FullName, user.Bio, user.ProfilePic, user.NativeLanguage, user.LearningLanguage, user.Location, time.Now().UTC(), user.ID,
	)
	if err != nil {
		return models.User{}, err
	}

	s.syncChatProfile(user)
	return user, nil
}

// Onboard completes a new account's profile and marks it onboarded, which
// makes the account visible to recommendations.
func (s *AccountService) Onboard(id string, profile OnboardingProfile) (models.User, error) {
	if profile.FullName == "" || profile.Bio == "" || profile.NativeLanguage == "" || profile.Location == "" {
		return models.User{}, fmt.Errorf("%w: fullName, bio, nativeLanguage and location are required", ErrValidation)
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}

	user.FullName = profile.FullName
	user.Bio = profile.Bio
	user.NativeLanguage = profile.NativeLanguage
	user.LearningLanguage = profile.LearningLanguage
	user.Location = profile.Location
	if profile.ProfilePic != "" {
		user.ProfilePic = profile.ProfilePic
	}
	user.IsOnboarded = true

	_, err = s.db.Exec(
		"UPDATE users SET full_name = ?, bio = ?, native_language = ?, learning_language = ?, location = ?, profile_pic = ?, is_onboarded = 1, updated_at = ? WHERE id = ?",
		user.FullName, user.Bio, user.NativeLanguage, user.LearningLanguage, user.Location, user.ProfilePic, time.Now().UTC(), user.ID,
	)
	if err != nil {
		return models.User{}, err
	}

	s.syncChatProfile(user)
	return user, nil
}

// IssuePasswordResetToken generates a single-use reset token for an account.
// Only a hash of the token is stored; the raw token is returned once for
// delivery to the user.
func (s *AccountService) IssuePasswordResetToken(email string) (string, error) {
	var id string
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: no account for that email", ErrNotFound)
		}
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	expires := time.Now().UTC().Add(resetTokenTTL)

	_, err = s.db.Exec(
		"UPDATE users SET reset_token_hash = ?, reset_token_expires = ?, updated_at = ? WHERE id = ?",
		hashToken(token), expires, time.Now().UTC(), id,
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// ConsumePasswordResetToken replaces the credential of the account holding
// an unexpired matching token, then clears the token so it cannot be
// replayed.
func (s *AccountService) ConsumePasswordResetToken(token, newPassword string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	var id string
	err := s.db.QueryRow(
		"SELECT id FROM users WHERE reset_token_hash = ? AND reset_token_expires > ?",
		hashToken(token), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: invalid or expired reset token", ErrValidation)
		}
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE users SET password_hash = ?, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = ? WHERE id = ?",
		string(hashedPassword), time.Now().UTC(), id,
	)
	return err
}

// syncChatProfile mirrors the profile to the external chat provider.
// Best-effort: a failure here must never fail the triggering operation.
func (s *AccountService) syncChatProfile(user models.User) {
	if s.chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.chat.UpsertUser(ctx, chat.User{
		ID:    user.ID,
		Name:  user.FullName,
		Image: user.ProfilePic,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to sync chat profile")
	}
}

func avatarFor(email string) string {
	h := fnv.New32a()
	h.Write([]byte(email))
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", h.Sum32()%100+1)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// scanner abstracts *sql.Row and *sql.Rows for user scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, user *models.User) error {
	return row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Bio,
		&user.ProfilePic, &user.NativeLanguage, &user.LearningLanguage,
		&user.Location, &user.IsOnboarded, &user.CreatedAt, &user.UpdatedAt,
	)
}
