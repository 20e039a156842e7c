package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linguameet/internal/event"
	"linguameet/internal/model"
)

type fakeAuditStore struct {
	logged chan model.AuditEntry
}

func (s *fakeAuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	s.logged <- entry
	return nil
}

func (s *fakeAuditStore) Query(_ context.Context, _ model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return nil, model.Meta{}, nil
}

func TestAuditService_RecordsPublishedEvents(t *testing.T) {
	t.Parallel()

	store := &fakeAuditStore{logged: make(chan model.AuditEntry, 10)}
	bus := event.NewBus()
	svc := NewAuditService(store, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	go func() {
		close(ready)
		svc.Run(ctx)
	}()
	<-ready
	// Give Run a moment to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)

	occurred := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	bus.Publish(event.Event{
		ID:        "evt-1",
		Type:      event.TypeCoinsTransferred,
		Timestamp: occurred.Format(time.RFC3339Nano),
		ActorID:   "u1",
		Payload:   map[string]any{"amount": int64(5)},
	})

	select {
	case entry := <-store.logged:
		require.Equal(t, string(event.TypeCoinsTransferred), entry.Action)
		require.Equal(t, "u1", entry.Actor.UserID)
		require.Equal(t, occurred, entry.OccurredAt)
		require.Equal(t, "ok", entry.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry was never written")
	}
}
