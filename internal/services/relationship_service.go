package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meeterup/meeterup-be/internal/models"
)

// RelationshipServiceProvider defines the interface for the relationship
// engine. It is the sole authority for mutating friend and block state.
type RelationshipServiceProvider interface {
	SendFriendRequest(senderID, recipientID string) (models.FriendRequest, error)
	AcceptFriendRequest(accepterID, requestID string) error
	CancelFriendRequest(callerID, requestID string) error
	Unfriend(callerID, targetID string) error
	BlockUser(callerID, targetID string) error
	UnblockUser(callerID, targetID string) error
}

// RelationshipService enforces the friend-state transition rules. Every
// operation validates its preconditions and applies its effects inside a
// single transaction, so no caller observes a half-applied transition.
type RelationshipService struct {
	db       *sql.DB
	eventSvc EventServiceProvider
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(db *sql.DB, eventSvc EventServiceProvider) *RelationshipService {
	return &RelationshipService{db: db, eventSvc: eventSvc}
}

// SendFriendRequest creates a pending request from sender to recipient.
// Rejected when the two are already friends, when either has blocked the
// other, or when a pending request already exists in either direction.
func (s *RelationshipService) SendFriendRequest(senderID, recipientID string) (models.FriendRequest, error) {
	if senderID == recipientID {
		return models.FriendRequest{}, fmt.Errorf("%w: cannot send a friend request to yourself", ErrSelfReference)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.FriendRequest{}, err
	}
	defer tx.Rollback()

	exists, err := userExists(tx, recipientID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if !exists {
		return models.FriendRequest{}, fmt.Errorf("%w: recipient", ErrNotFound)
	}

	friends, err := areFriends(tx, senderID, recipientID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if friends {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	blocked, err := blockedEitherWay(tx, senderID, recipientID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if blocked {
		return models.FriendRequest{}, ErrBlocked
	}

	pending, err := pendingRequestExists(tx, senderID, recipientID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if pending {
		return models.FriendRequest{}, ErrDuplicateRequest
	}

	now := time.Now().UTC()
	request := models.FriendRequest{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = tx.Exec(
		"INSERT INTO friend_requests (id, sender_id, recipient_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		request.ID, request.SenderID, request.RecipientID, request.Status, request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return models.FriendRequest{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.FriendRequest{}, err
	}

	s.eventSvc.RecordEvent(models.EventRequestSent, "You have a new friend request", senderID, recipientID)
	return request, nil
}

// AcceptFriendRequest marks a pending request accepted and makes the two
// accounts friends. Only the recipient may accept. Blocks are re-checked
// here because one may have been placed after the request was sent.
func (s *RelationshipService) AcceptFriendRequest(accepterID, requestID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	request, err := getRequest(tx, requestID)
	if err != nil {
		return err
	}
	if request.RecipientID != accepterID {
		return fmt.Errorf("%w: only the recipient can accept a friend request", ErrNotAuthorized)
	}
	if request.Status != models.RequestStatusPending {
		return fmt.Errorf("%w: request is not pending", ErrInvalidState)
	}

	blocked, err := blockedEitherWay(tx, request.SenderID, request.RecipientID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrBlocked
	}

	_, err = tx.Exec(
		"UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ?",
		models.RequestStatusAccepted, time.Now().UTC(), request.ID,
	)
	if err != nil {
		return err
	}

	// Set semantics: re-applying after a retry never duplicates a side.
	if err := insertFriendship(tx, request.SenderID, request.RecipientID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.eventSvc.RecordEvent(models.EventRequestAccepted, "Your friend request was accepted", accepterID, request.SenderID)
	return nil
}

// CancelFriendRequest deletes a pending request. Only the original sender
// may cancel; accepted requests can only be undone by unfriending.
func (s *RelationshipService) CancelFriendRequest(callerID, requestID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	request, err := getRequest(tx, requestID)
	if err != nil {
		return err
	}
	if request.SenderID != callerID {
		return fmt.Errorf("%w: only the sender can cancel a friend request", ErrNotAuthorized)
	}
	if request.Status != models.RequestStatusPending {
		return fmt.Errorf("%w: only pending requests can be cancelled", ErrInvalidState)
	}

	if _, err := tx.Exec("DELETE FROM friend_requests WHERE id = ?", request.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.eventSvc.RecordEvent(models.EventRequestCancelled, "A friend request was withdrawn", callerID, request.RecipientID)
	return nil
}

// Unfriend removes the friendship between caller and target and purges
// every request record for the pair, so a fresh request can be sent later.
func (s *RelationshipService) Unfriend(callerID, targetID string) error {
	if callerID == targetID {
		return fmt.Errorf("%w: cannot unfriend yourself", ErrSelfReference)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := userExists(tx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	if err := deleteFriendship(tx, callerID, targetID); err != nil {
		return err
	}

	_, err = tx.Exec(
		"DELETE FROM friend_requests WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		callerID, targetID, targetID, callerID,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.eventSvc.RecordEvent(models.EventFriendRemoved, "A friend removed you", callerID, targetID)
	return nil
}

// BlockUser adds target to the caller's block list and removes any
// friendship between the two, including the accepted request record the
// friendship was derived from, so unblocking later restores nothing.
// Pending requests are left in place: a later accept attempt is rejected
// by the block re-check rather than the request being silently cleaned up.
func (s *RelationshipService) BlockUser(callerID, targetID string) error {
	if callerID == targetID {
		return fmt.Errorf("%w: cannot block yourself", ErrSelfReference)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := userExists(tx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	_, err = tx.Exec(
		"INSERT OR IGNORE INTO blocks (blocker_id, blocked_id) VALUES (?, ?)",
		callerID, targetID,
	)
	if err != nil {
		return err
	}

	// Blocking always implies unfriending, regardless of who blocked whom.
	if err := deleteFriendship(tx, callerID, targetID); err != nil {
		return err
	}

	// Without this the maintenance repair would re-derive the friendship
	// from the accepted record once the block is lifted.
	_, err = tx.Exec(
		"DELETE FROM friend_requests WHERE status = ? AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
		models.RequestStatusAccepted, callerID, targetID, targetID, callerID,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Block state must not leak to the blocked account, so the event's
	// subject is the caller themselves.
	s.eventSvc.RecordEvent(models.EventUserBlocked, "User blocked", callerID, callerID)
	return nil
}

// UnblockUser removes target from the caller's block list only. Prior
// friendship or requests are not restored.
func (s *RelationshipService) UnblockUser(callerID, targetID string) error {
	if callerID == targetID {
		return fmt.Errorf("%w: cannot unblock yourself", ErrSelfReference)
	}

	_, err := s.db.Exec(
		"DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?",
		callerID, targetID,
	)
	if err != nil {
		return err
	}

	s.eventSvc.RecordEvent(models.EventUserUnblocked, "User unblocked", callerID, callerID)
	return nil
}

func userExists(tx *sql.Tx, id string) (bool, error) {
	var exists bool
	err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&exists)
	return exists, err
}

func areFriends(tx *sql.Tx, a, b string) (bool, error) {
	var exists bool
	err := tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = ? AND friend_id = ?)",
		a, b,
	).Scan(&exists)
	return exists, err
}

// blockedEitherWay reports whether either account has blocked the other.
// The relation is directional but the check is symmetric on purpose.
func blockedEitherWay(tx *sql.Tx, a, b string) (bool, error) {
	var exists bool
	err := tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM blocks WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?))",
		a, b, b, a,
	).Scan(&exists)
	return exists, err
}

func pendingRequestExists(tx *sql.Tx, a, b string) (bool, error) {
	var exists bool
	err := tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM friend_requests WHERE status = 'pending' AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)))",
		a, b, b, a,
	).Scan(&exists)
	return exists, err
}

func getRequest(tx *sql.Tx, id string) (models.FriendRequest, error) {
	var request models.FriendRequest
	err := tx.QueryRow(
		"SELECT id, sender_id, recipient_id, status, created_at, updated_at FROM friend_requests WHERE id = ?",
		id,
	).Scan(&request.ID, &request.SenderID, &request.RecipientID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.FriendRequest{}, fmt.Errorf("%w: friend request", ErrNotFound)
		}
		return models.FriendRequest{}, err
	}
	return request, nil
}

// insertFriendship writes both directions of the symmetric relation.
// INSERT OR IGNORE keeps each side idempotent.
func insertFriendship(tx *sql.Tx, a, b string) error {
	if _, err := tx.Exec("INSERT OR IGNORE INTO friendships (user_id, friend_id) VALUES (?, ?)", a, b); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT OR IGNORE INTO friendships (user_id, friend_id) VALUES (?, ?)", b, a)
	return err
}

func deleteFriendship(tx *sql.Tx, a, b string) error {
	_, err := tx.Exec(
		"DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		a, b, b, a,
	)
	return err
}
