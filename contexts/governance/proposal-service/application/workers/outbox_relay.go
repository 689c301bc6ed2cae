package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "agora/contexts/governance/proposal-service/application"
	"agora/contexts/governance/proposal-service/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox         ports.OutboxRepository
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	Logger         *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds. Publish failures are retried
// with exponential backoff before the cycle aborts, so the next cycle can
// reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("proposal outbox list failed",
			"event", "proposal_outbox_list_failed",
			"module", "governance/proposal-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("proposal outbox decode failed",
				"event", "proposal_outbox_decode_failed",
				"module", "governance/proposal-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.publishWithRetry(ctx, topic, event); err != nil {
			logger.Error("proposal outbox publish failed",
				"event", "proposal_outbox_publish_failed",
				"module", "governance/proposal-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("proposal outbox mark published failed",
				"event", "proposal_outbox_mark_published_failed",
				"module", "governance/proposal-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("proposal outbox relay cycle completed",
		"event", "proposal_outbox_relay_completed",
		"module", "governance/proposal-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}

func (r OutboxRelay) publishWithRetry(ctx context.Context, topic string, event ports.EventEnvelope) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := r.InitialBackoff
	if backoff <= 0 {
		backoff = 1000 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = r.Publisher.Publish(ctx, topic, event)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}
