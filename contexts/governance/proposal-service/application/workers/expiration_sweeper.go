package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "agora/contexts/governance/proposal-service/application"
	"agora/contexts/governance/proposal-service/domain/entities"
	"agora/contexts/governance/proposal-service/ports"
)

// ExpirationSweeper flips active proposals whose voting window closed to
// expired. The sweep is a conditional write, so re-running it over the same
// rows is a no-op.
type ExpirationSweeper struct {
	Proposals ports.ProposalRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

func (j ExpirationSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := j.Proposals.ExpireProposalsPastEndTime(ctx, now, limit)
	if err != nil {
		logger.Error("proposal expiration sweep failed",
			"event", "proposal_expiration_sweep_failed",
			"module", "governance/proposal-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	for _, proposal := range expired {
		if err := j.appendExpiredEvent(ctx, proposal, now); err != nil {
			logger.Error("proposal expiration notification failed",
				"event", "proposal_expiration_notify_failed",
				"module", "governance/proposal-service",
				"layer", "worker",
				"proposal_id", proposal.ProposalID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("proposal expiration sweep completed",
		"event", "proposal_expiration_sweep_completed",
		"module", "governance/proposal-service",
		"layer", "worker",
		"expired_count", len(expired),
	)
	return nil
}

func (j ExpirationSweeper) appendExpiredEvent(ctx context.Context, proposal entities.Proposal, occurredAt time.Time) error {
	if j.Outbox == nil {
		return nil
	}
	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"proposal_id": proposal.ProposalID,
		"dao_id":      proposal.DAOID,
		"end_time":    proposal.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return j.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "proposal.expired",
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "proposal-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "dao_id",
		PartitionKey:     proposal.DAOID,
		Data:             data,
	})
}
