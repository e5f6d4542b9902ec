// Package sse provides Server-Sent Events support for live dashboard updates.
package sse

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"dashboard_backend/platform/httpkit"
	"dashboard_backend/platform/logger"

	ginsse "github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventCriticalAlert    EventType = "critical_alert"
	EventDegraded         EventType = "degraded"
	EventFallbackUsed     EventType = "fallback_used"
	EventSnapshotArchived EventType = "snapshot_archived"
)

const (
	clientBufferSize  = 32
	allOfficesFilter  = "all"
	heartbeatInterval = 25 * time.Second
)

// Event represents an SSE event payload
type Event struct {
	ID      string      `json:"id,omitempty"`
	Type    EventType   `json:"type"`
	Office  string      `json:"office"`
	Period  string      `json:"period,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	office string
	events chan Event
}

func (c *client) wants(office string) bool {
	return c.office == "" || c.office == allOfficesFilter || strings.EqualFold(c.office, office)
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	heartbeat time.Duration
	log       *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		clients:   make(map[*client]struct{}),
		heartbeat: heartbeatInterval,
		log:       log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.events)
}

// Broadcast sends event to every client watching its office. Slow clients
// drop events rather than block the publisher.
func (s *Service) Broadcast(event Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for c := range s.clients {
		if !c.wants(event.Office) {
			continue
		}
		select {
		case c.events <- event:
			delivered++
		default:
			s.log.Warn("sse buffer full", "user", c.userID, "event", event.Type)
		}
	}
	return delivered
}

// Clients returns the number of open streams.
func (s *Service) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler returns a Gin handler for SSE connections. The optional office
// query parameter narrows the stream to one office.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: identity.UserID(),
			office: strings.ToLower(strings.TrimSpace(c.Query("office"))),
			events: make(chan Event, clientBufferSize),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": cl.userID, "office": cl.office})
		c.Writer.Flush()

		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case <-ticker.C:
				// Keeps idle proxies from closing the stream.
				c.SSEvent("ping", time.Now().UTC().Unix())
				c.Writer.Flush()
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.Render(-1, ginsse.Event{Id: event.ID, Event: string(event.Type), Data: string(data)})
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		close(c.events)
	}
	s.clients = make(map[*client]struct{})
}
