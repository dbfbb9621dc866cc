package websocket

import "github.com/rs/zerolog/log"

type notification struct {
	userID  string
	message []byte
}

// Hub maintains the set of active clients and routes notifications to them.
// All map access happens on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Outbound notifications keyed by user id.
	notify chan notification

	// A map of user IDs to the set of connections owned by that user.
	// A user may be connected from several devices at once.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		notify:        make(chan notification, 64),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case n := <-h.notify:
			h.deliver(n)
		}
	}
}

// NotifyUser queues a message for every connection the given user holds.
// It never blocks the caller: if the hub's queue is full the notification
// is dropped, since the feed is advisory and the client can re-query.
func (h *Hub) NotifyUser(userID string, message []byte) {
	select {
	case h.notify <- notification{userID: userID, message: message}:
	default:
		log.Warn().Str("user_id", userID).Msg("Notification queue full, dropping message")
	}
}

func (h *Hub) deliver(n notification) {
	if subs, ok := h.subscriptions[n.userID]; ok {
		for client := range subs {
			select {
			case client.Send <- n.message:
			default:
				// Connection cannot keep up; drop it.
				close(client.Send)
				delete(h.clients, client)
				delete(subs, client)
			}
		}
		if len(subs) == 0 {
			delete(h.subscriptions, n.userID)
		}
	}
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.UserID)
		}
	}
}
