// Package realtime fans activity events out to the websocket connections of
// the users who have a stake in the changed defect.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventType names what happened to an entity.
type EventType string

const (
	DefectCreated     EventType = "defect_created"
	DefectUpdated     EventType = "defect_updated"
	DefectDeleted     EventType = "defect_deleted"
	CommentCreated    EventType = "comment_created"
	CommentDeleted    EventType = "comment_deleted"
	AttachmentCreated EventType = "attachment_created"
)

// Event is the JSON payload pushed to subscribers.
type Event struct {
	Type     EventType `json:"type"`
	DefectID uint      `json:"defect_id"`
	EntityID uint      `json:"entity_id"`
	ActorID  uint      `json:"actor_id"`
	At       time.Time `json:"at"`
	Data     any       `json:"data,omitempty"`
}

// Client is one live connection. The network side is owned by the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub tracks live clients per user id.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[uint]map[Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes a client and drops the user entry once it has none left.
func (h *Hub) Unregister(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[userID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
}

// Connected returns how many clients userID currently has.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish delivers ev once to every client of each distinct user in userIDs.
// Delivery is best-effort: failed sends are logged and the client is left for
// its handler to clean up.
func (h *Hub) Publish(userIDs []uint, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("realtime event encode failed",
			"event", "realtime_encode_failed",
			"module", "realtime",
			"layer", "hub",
			"type", string(ev.Type),
			"error", err.Error(),
		)
		return
	}

	seen := make(map[uint]struct{}, len(userIDs))
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for c := range h.clients[id] {
			if !c.Send(msg) {
				h.logger.Warn("realtime send failed",
					"event", "realtime_send_failed",
					"module", "realtime",
					"layer", "hub",
					"user_id", id,
					"type", string(ev.Type),
				)
			}
		}
	}
}
