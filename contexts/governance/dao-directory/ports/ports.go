package ports

import (
	"context"
	"time"

	"agora/contexts/governance/dao-directory/domain/entities"
	"agora/internal/shared/events"
)

type DAOFilter struct {
	OwnerAddress string
	Status       entities.DAOStatus
}

type DAORepository interface {
	CreateDAO(ctx context.Context, dao entities.DAO) error
	GetDAO(ctx context.Context, daoID string) (entities.DAO, error)
	ListDAOs(ctx context.Context, filter DAOFilter) ([]entities.DAO, error)
	UpdateDAOStatus(ctx context.Context, daoID string, status entities.DAOStatus, updatedAt time.Time) error

	// Membership mutations are conditional store writes, not read-modify-write:
	// the boolean reports whether the set actually changed.
	AddMember(ctx context.Context, daoID string, address string, updatedAt time.Time) (bool, error)
	RemoveMember(ctx context.Context, daoID string, address string, updatedAt time.Time) (bool, error)
	IsMember(ctx context.Context, daoID string, address string) (bool, error)

	// AddProposalRef appends with set semantics; replays are silent no-ops.
	AddProposalRef(ctx context.Context, daoID string, proposalID string, updatedAt time.Time) error
	ListProposalRefs(ctx context.Context, daoID string) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
