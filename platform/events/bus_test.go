package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dashboard_backend/platform/logger"
)

type pingEvent struct{ BaseEvent }

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	calls := 0
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return errors.New("first failed")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		panic("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{NewBaseEvent()})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if calls != 3 {
		t.Fatalf("expected every handler to run, got %d calls", calls)
	}
}

func TestPublishRunsAsyncWithDetachedContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	var wg sync.WaitGroup
	wg.Add(1)

	var ctxErr error
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		defer wg.Done()
		ctxErr = ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{NewBaseEvent()})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not run")
	}
	if ctxErr != nil {
		t.Fatalf("expected detached context, got %v", ctxErr)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), pingEvent{NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), pingEvent{NewBaseEvent()}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNewBaseEventStampsIDAndUTC(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.EventID() == b.EventID() {
		t.Fatalf("expected distinct ids, got %s twice", a.EventID())
	}
	if a.OccurredAt().Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", a.OccurredAt().Location())
	}
}
