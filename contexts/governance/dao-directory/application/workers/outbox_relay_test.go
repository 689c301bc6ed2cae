package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/dao-directory/adapters/memory"
	"agora/contexts/governance/dao-directory/application/workers"
	"agora/contexts/governance/dao-directory/ports"
)

type capturingPublisher struct {
	failuresLeft int
	published    []ports.EventEnvelope
	topics       []string
	attempts     int
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.attempts++
	if p.failuresLeft > 0 {
		p.failuresLeft--
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.published = append(p.published, event)
	return nil
}

func seedEnvelope(t *testing.T, store *memory.Store, eventID string, eventType string) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "dao-directory",
		SchemaVersion: 1,
		PartitionKey:  "dao-1",
		Data:          []byte(`{"dao_id":"dao-1"}`),
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestOutboxRelayPublishesPendingRows(t *testing.T) {
	store := memory.NewStore(nil)
	seedEnvelope(t, store, "evt-1", "dao.created")
	seedEnvelope(t, store, "evt-2", "dao.member_added")

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.topics[0] != "dao.created" || publisher.topics[1] != "dao.member_added" {
		t.Fatalf("expected event type topics, got %v", publisher.topics)
	}
	if got := store.PendingOutboxCount(); got != 0 {
		t.Fatalf("expected all rows marked published, got %d pending", got)
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected no republish on idle run, got %d", len(publisher.published))
	}
}

func TestOutboxRelayRetriesTransientPublishFailures(t *testing.T) {
	store := memory.NewStore(nil)
	seedEnvelope(t, store, "evt-1", "dao.created")

	publisher := &capturingPublisher{failuresLeft: 2}
	relay := workers.OutboxRelay{
		Outbox:         store,
		Publisher:      publisher,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay should recover within the retry limit: %v", err)
	}
	if publisher.attempts != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", publisher.attempts)
	}
	if got := store.PendingOutboxCount(); got != 0 {
		t.Fatalf("expected row published after retries, got %d pending", got)
	}
}

func TestOutboxRelayKeepsRowPendingOnExhaustedRetries(t *testing.T) {
	store := memory.NewStore(nil)
	seedEnvelope(t, store, "evt-1", "dao.created")

	publisher := &capturingPublisher{failuresLeft: 5}
	relay := workers.OutboxRelay{
		Outbox:         store,
		Publisher:      publisher,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay error after exhausted retries")
	}
	if publisher.attempts != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", publisher.attempts)
	}
	if got := store.PendingOutboxCount(); got != 1 {
		t.Fatalf("expected row to stay pending for the next cycle, got %d", got)
	}
}
