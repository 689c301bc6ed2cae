package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance/voting-engine/application"
	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"
)

// CastVoteCommand is the write-model input for ballot submission.
type CastVoteCommand struct {
	ProposalID   string
	VoterAddress string
	Choice       string
	Comment      string
}

type CastVoteUseCase struct {
	Votes     ports.VoteRepository
	Proposals ports.ProposalGateway
	Directory ports.DAOGateway
	Balances  ports.TokenBalanceSource
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute runs the eligibility chain in a fixed order: proposal existence,
// proposal liveness, window, DAO existence, membership, duplicate ballot,
// then choice. The first violated rule decides the error a caller sees.
func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)

	proposalID := strings.TrimSpace(cmd.ProposalID)
	voter := strings.TrimSpace(cmd.VoterAddress)
	choice := strings.TrimSpace(cmd.Choice)
	if proposalID == "" || voter == "" || choice == "" {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.Vote{}, err
	}
	if proposal.Status != "active" {
		return entities.Vote{}, domainerrors.ErrProposalNotActive
	}
	now := uc.now()
	// The window inclusively covers its end instant; only strictly-late
	// ballots are turned away.
	if now.After(proposal.EndTime) {
		return entities.Vote{}, domainerrors.ErrVotingWindowClosed
	}

	dao, err := uc.Directory.GetDAO(ctx, proposal.DAOID)
	if err != nil {
		return entities.Vote{}, err
	}
	isMember, err := uc.Directory.IsMember(ctx, dao.DAOID, voter)
	if err != nil {
		return entities.Vote{}, err
	}
	if !isMember {
		logger.Warn("vote rejected for non-member",
			"event", "vote_voter_not_member",
			"module", "governance/voting-engine",
			"layer", "application",
			"proposal_id", proposalID,
			"dao_id", dao.DAOID,
			"voter_address", voter,
		)
		return entities.Vote{}, domainerrors.ErrVoterNotMember
	}

	if _, found, err := uc.Votes.GetVoteByVoter(ctx, proposalID, voter); err != nil {
		return entities.Vote{}, err
	} else if found {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}

	validChoice := false
	for _, option := range proposal.VotingOptions {
		if option == choice {
			validChoice = true
			break
		}
	}
	if !validChoice {
		return entities.Vote{}, domainerrors.ErrInvalidChoice
	}

	weight, err := uc.resolveWeight(ctx, dao, voter)
	if err != nil {
		return entities.Vote{}, err
	}

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:       "vote-" + id,
		ProposalID:   proposalID,
		DAOID:        dao.DAOID,
		VoterAddress: voter,
		Choice:       choice,
		Weight:       weight,
		Comment:      strings.TrimSpace(cmd.Comment),
		CastAt:       now,
	}
	if err := uc.Votes.InsertVote(ctx, vote); err != nil {
		// The pre-check and the insert race under concurrency; the store's
		// uniqueness guarantee is the authority.
		if errors.Is(err, domainerrors.ErrAlreadyVoted) {
			return entities.Vote{}, domainerrors.ErrAlreadyVoted
		}
		return entities.Vote{}, err
	}

	if err := uc.appendVoteCastEvent(ctx, vote, now); err != nil {
		return entities.Vote{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}

	logger.Info("vote cast",
		"event", "vote_cast",
		"module", "governance/voting-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"proposal_id", vote.ProposalID,
		"dao_id", vote.DAOID,
		"voter_address", vote.VoterAddress,
		"choice", vote.Choice,
		"weight", vote.Weight,
	)
	return vote, nil
}

// resolveWeight defaults every ballot to weight 1. Token-weighted DAOs with
// a wired balance source use the voter's balance when it is positive.
func (uc CastVoteUseCase) resolveWeight(ctx context.Context, dao ports.DAOProjection, voter string) (int64, error) {
	if !dao.TokenWeighted || uc.Balances == nil {
		return 1, nil
	}
	weight, err := uc.Balances.WeightFor(ctx, dao.DAOID, voter)
	if err != nil {
		return 0, err
	}
	if weight <= 0 {
		return 1, nil
	}
	return weight, nil
}

func (uc CastVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CastVoteUseCase) appendVoteCastEvent(ctx context.Context, vote entities.Vote, occurredAt time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newVotingEnvelope(eventID, "vote.cast", vote.ProposalID, occurredAt, map[string]any{
		"vote_id":       vote.VoteID,
		"proposal_id":   vote.ProposalID,
		"dao_id":        vote.DAOID,
		"voter_address": vote.VoterAddress,
		"choice":        vote.Choice,
		"weight":        vote.Weight,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
