package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meeterup/meeterup-be/internal/models"
	ws "github.com/meeterup/meeterup-be/internal/websocket"
)

// EventServiceProvider defines the interface for relationship event services.
type EventServiceProvider interface {
	RecordEvent(eventType, message, actorID, subjectID string)
	GetRecentEventsFor(userID string, limit int) ([]models.Event, error)
}

// EventService records relationship events and pushes them to the subject's
// live notification feed.
type EventService struct {
	db  *sql.DB
	hub *ws.Hub
}

// NewEventService creates a new EventService. hub may be nil in contexts
// without a live feed (tests, maintenance jobs).
func NewEventService(db *sql.DB, hub *ws.Hub) *EventService {
	return &EventService{db: db, hub: hub}
}

// RecordEvent logs a new event and notifies the subject. Event recording is
// advisory: failures are logged, never surfaced to the triggering operation.
func (s *EventService) RecordEvent(eventType, message, actorID, subjectID string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Message:   message,
		ActorID:   actorID,
		SubjectID: subjectID,
	}

	_, err := s.db.Exec(
		"INSERT INTO events (id, type, message, actor_id, subject_id) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Message, event.ActorID, event.SubjectID,
	)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
		return
	}

	if s.hub != nil {
		s.hub.NotifyUser(subjectID, ws.NewNotification(eventType, event))
	}
}

// GetRecentEventsFor retrieves the most recent events addressed to a user.
func (s *EventService) GetRecentEventsFor(userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, message, actor_id, subject_id, created_at FROM events WHERE subject_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Message, &event.ActorID, &event.SubjectID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
