package models

import "time"

// Friend request statuses. A pending request is deleted outright on
// cancellation, so there is no cancelled status.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
)

// FriendRequest is a directional proposal from a sender to a recipient.
// At most one pending request exists for any pair of users at a time,
// regardless of direction.
type FriendRequest struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IncomingRequest is a pending request as seen by its recipient, with the
// sender's public profile resolved.
type IncomingRequest struct {
	FriendRequest
	Sender UserSummary `json:"sender"`
}

// OutgoingRequest is a request as seen by its sender, with the recipient's
// public profile resolved. Used for both pending and accepted views.
type OutgoingRequest struct {
	FriendRequest
	Recipient UserSummary `json:"recipient"`
}
