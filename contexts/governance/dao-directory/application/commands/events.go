package commands

import (
	"encoding/json"
	"time"

	"agora/contexts/governance/dao-directory/ports"
)

func newDirectoryEnvelope(
	eventID string,
	eventType string,
	daoID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Directory events are partitioned by DAO so membership consumers observe
	// changes to one DAO in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "dao-directory",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "dao_id",
		PartitionKey:     daoID,
		Data:             payload,
	}, nil
}
