package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"blog-social/domain/model"

	"github.com/gin-gonic/gin"
)

const EventPublicationStatus = "publication_status"

// Hub maintains per-user subscribers listening for publication status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.PublicationStatusEvent]struct{}
}

func NewPublicationHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.PublicationStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.PublicationStatusEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + EventPublicationStatus + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan model.PublicationStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.PublicationStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan model.PublicationStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// Subscribers reports how many streams the user has open.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// BroadcastPublicationStatus sends the event to every stream of its owner without blocking.
func (h *Hub) BroadcastPublicationStatus(evt model.PublicationStatusEvent) {
	if evt.UserID == "" {
		return
	}
	if evt.Type == "" {
		evt.Type = EventPublicationStatus
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[evt.UserID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
