package ports

import (
	"context"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	"agora/internal/shared/events"
)

type VoteRepository interface {
	// InsertVote persists the ballot behind a uniqueness guarantee on
	// (proposal_id, voter_address); a concurrent duplicate surfaces as
	// ErrAlreadyVoted, never as a second row.
	InsertVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	GetVoteByVoter(ctx context.Context, proposalID string, voterAddress string) (entities.Vote, bool, error)
	ListVotesByProposal(ctx context.Context, proposalID string) ([]entities.Vote, error)
	ListVotesByDAO(ctx context.Context, daoID string) ([]entities.Vote, error)
}

// ProposalProjection is the read-model slice of a proposal this module needs
// for ballot eligibility checks.
type ProposalProjection struct {
	ProposalID    string
	DAOID         string
	Status        string
	EndTime       time.Time
	VotingOptions []string
}

type ProposalGateway interface {
	GetProposal(ctx context.Context, proposalID string) (ProposalProjection, error)
}

// DAOProjection carries the membership and weighting rules for one DAO.
type DAOProjection struct {
	DAOID         string
	TokenWeighted bool
}

type DAOGateway interface {
	GetDAO(ctx context.Context, daoID string) (DAOProjection, error)
	IsMember(ctx context.Context, daoID string, address string) (bool, error)
}

// TokenBalanceSource resolves a voter's token weight for token-weighted DAOs.
// Wiring it is optional; without one every ballot counts as weight 1.
type TokenBalanceSource interface {
	WeightFor(ctx context.Context, daoID string, voterAddress string) (int64, error)
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
