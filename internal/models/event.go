package models

import "time"

// Relationship event types recorded by the engine and pushed over the
// notification feed.
const (
	EventRequestSent      = "friend.request.sent"
	EventRequestAccepted  = "friend.request.accepted"
	EventRequestCancelled = "friend.request.cancelled"
	EventFriendRemoved    = "friend.removed"
	EventUserBlocked      = "user.blocked"
	EventUserUnblocked    = "user.unblocked"
)

// Event represents a relationship change affecting a user. ActorID is the
// account that performed the operation, SubjectID the account it targeted.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ActorID   string    `json:"actorId"`
	SubjectID string    `json:"subjectId"`
	CreatedAt time.Time `json:"createdAt"`
}
