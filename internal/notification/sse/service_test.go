package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dashboard_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newClient(s *Service, office string) *client {
	c := &client{userID: uuid.New(), office: office, events: make(chan Event, 1)}
	s.addClient(c)
	return c
}

func TestBroadcastFiltersByOffice(t *testing.T) {
	s := New(logger.New("test"))
	hq := newClient(s, "hq")
	all := newClient(s, "")
	north := newClient(s, "north")

	if n := s.Broadcast(Event{Type: EventCriticalAlert, Office: "hq"}); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if len(hq.events) != 1 || len(all.events) != 1 || len(north.events) != 0 {
		t.Fatalf("unexpected fan-out hq=%d all=%d north=%d", len(hq.events), len(all.events), len(north.events))
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	s := New(logger.New("test"))
	c := newClient(s, "hq")

	s.Broadcast(Event{Type: EventDegraded, Office: "hq"})
	if n := s.Broadcast(Event{Type: EventDegraded, Office: "hq"}); n != 0 {
		t.Fatalf("expected drop on full buffer, got %d deliveries", n)
	}
	if len(c.events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(c.events))
	}
}

func TestRemoveAndClose(t *testing.T) {
	s := New(logger.New("test"))
	c := newClient(s, "hq")
	newClient(s, "north")

	s.removeClient(c)
	s.removeClient(c)
	if s.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", s.Clients())
	}
	s.Close()
	if s.Clients() != 0 {
		t.Fatalf("expected no clients after close")
	}
}

func TestHandlerRequiresIdentity(t *testing.T) {
	s := New(logger.New("test"))
	engine := gin.New()
	engine.GET("/stream", s.Handler())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
