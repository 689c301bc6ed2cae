package commands

import (
	"encoding/json"
	"time"

	"agora/contexts/governance/proposal-service/ports"
)

func newProposalEnvelope(
	eventID string,
	eventType string,
	daoID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Proposal events are partitioned by DAO so lifecycle consumers observe
	// one DAO's proposals in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "proposal-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "dao_id",
		PartitionKey:     daoID,
		Data:             payload,
	}, nil
}
