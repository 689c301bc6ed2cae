package ports

import (
	"context"
	"time"

	"agora/contexts/governance/proposal-service/domain/entities"
	"agora/internal/shared/events"
)

type ProposalFilter struct {
	DAOID          string
	CreatorAddress string
	Status         entities.ProposalStatus
}

type ProposalRepository interface {
	CreateProposal(ctx context.Context, proposal entities.Proposal) error
	GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]entities.Proposal, error)
	UpdateProposalStatus(ctx context.Context, proposalID string, status entities.ProposalStatus, updatedAt time.Time) error

	// ExpireProposalsPastEndTime flips active proposals whose window closed to
	// expired in a single conditional write and returns the affected rows.
	ExpireProposalsPastEndTime(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error)
}

// DAOProjection is the read-model slice of a DAO this module needs for
// proposal admission checks.
type DAOProjection struct {
	DAOID                string
	Status               string
	ThresholdPercent     int
	MinVotingPeriodHours int
	TokenWeighted        bool
}

// DAODirectory is the gateway into the directory module.
type DAODirectory interface {
	GetDAO(ctx context.Context, daoID string) (DAOProjection, error)
	IsMember(ctx context.Context, daoID string, address string) (bool, error)
	AddProposalRef(ctx context.Context, daoID string, proposalID string) error
}

// TallySource exposes the vote totals the settlement path consumes.
type TallySource interface {
	TallyFor(ctx context.Context, proposalID string) (map[string]int64, error)
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
