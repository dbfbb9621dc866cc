package services

import (
	"database/sql"

	"github.com/meeterup/meeterup-be/internal/models"
)

// DirectoryServiceProvider defines the read-only views over accounts and
// requests. No method here mutates anything.
type DirectoryServiceProvider interface {
	RecommendedUsers(callerID string) ([]models.User, error)
	MyFriends(callerID string) ([]models.UserSummary, error)
	IncomingRequests(callerID string) ([]models.IncomingRequest, error)
	OutgoingRequests(callerID string) ([]models.OutgoingRequest, error)
	AcceptedSentRequests(callerID string) ([]models.OutgoingRequest, error)
	BlockedUsers(callerID string) ([]models.UserSummary, error)
}

// DirectoryService composes read-only projections from the account and
// request tables.
type DirectoryService struct {
	db *sql.DB
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(db *sql.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// RecommendedUsers returns every onboarded account except the caller, the
// caller's friends, accounts the caller blocked and accounts that blocked
// the caller. Ordering follows insertion order of the store.
func (s *DirectoryService) RecommendedUsers(callerID string) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, full_name, email, password_hash, bio, profile_pic, native_language,
		       learning_language, location, is_onboarded, created_at, updated_at
		FROM users
		WHERE is_onboarded = 1
		  AND id != ?
		  AND id NOT IN (SELECT friend_id FROM friendships WHERE user_id = ?)
		  AND id NOT IN (SELECT blocked_id FROM blocks WHERE blocker_id = ?)
		  AND id NOT IN (SELECT blocker_id FROM blocks WHERE blocked_id = ?)
	`, callerID, callerID, callerID, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, rows.Err()
}

// MyFriends resolves the caller's friends to public profile projections.
func (s *DirectoryService) MyFriends(callerID string) ([]models.UserSummary, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ?
		ORDER BY u.full_name
	`, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows)
}

// IncomingRequests returns pending requests addressed to the caller with
// each sender's profile resolved.
func (s *DirectoryService) IncomingRequests(callerID string) ([]models.IncomingRequest, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
		       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friend_requests r
		JOIN users u ON u.id = r.sender_id
		WHERE r.recipient_id = ? AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.IncomingRequest{}
	for rows.Next() {
		var req models.IncomingRequest
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
			&req.Sender.ID, &req.Sender.FullName, &req.Sender.ProfilePic,
			&req.Sender.NativeLanguage, &req.Sender.LearningLanguage,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// OutgoingRequests returns the caller's pending sent requests with each
// recipient's profile resolved.
func (s *DirectoryService) OutgoingRequests(callerID string) ([]models.OutgoingRequest, error) {
	return s.sentRequests(callerID, models.RequestStatusPending)
}

// AcceptedSentRequests returns requests the caller sent that were accepted.
// The view is asymmetric on purpose: it backs the sender's "request
// accepted" history and has no recipient-side counterpart.
func (s *DirectoryService) AcceptedSentRequests(callerID string) ([]models.OutgoingRequest, error) {
	return s.sentRequests(callerID, models.RequestStatusAccepted)
}

func (s *DirectoryService) sentRequests(callerID, status string) ([]models.OutgoingRequest, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
		       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM friend_requests r
		JOIN users u ON u.id = r.recipient_id
		WHERE r.sender_id = ? AND r.status = ?
		ORDER BY r.created_at DESC
	`, callerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.OutgoingRequest{}
	for rows.Next() {
		var req models.OutgoingRequest
		err := rows.Scan(
			&req.ID, &req.SenderID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
			&req.Recipient.ID, &req.Recipient.FullName, &req.Recipient.ProfilePic,
			&req.Recipient.NativeLanguage, &req.Recipient.LearningLanguage,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// BlockedUsers resolves the caller's block list to minimal projections.
func (s *DirectoryService) BlockedUsers(callerID string) ([]models.UserSummary, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		FROM blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = ?
		ORDER BY b.created_at DESC
	`, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func collectSummaries(rows *sql.Rows) ([]models.UserSummary, error) {
	summaries := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.ProfilePic, &s.NativeLanguage, &s.LearningLanguage); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
