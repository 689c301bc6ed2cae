package queries

import (
	"context"
	"strings"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"
)

// TallyResult is the weighted count per voting option.
type TallyResult struct {
	ProposalID string
	Totals     map[string]int64
	VoteCount  int
}

type TallyUseCase struct {
	Votes     ports.VoteRepository
	Proposals ports.ProposalGateway
}

// Tally zero-initializes every voting option so callers always see the full
// option list, then sums ballot weights. Ballots carrying a choice outside
// the current option list are skipped rather than failing the read.
func (uc TallyUseCase) Tally(ctx context.Context, proposalID string) (TallyResult, error) {
	proposalID = strings.TrimSpace(proposalID)
	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return TallyResult{}, err
	}

	totals := make(map[string]int64, len(proposal.VotingOptions))
	for _, option := range proposal.VotingOptions {
		totals[option] = 0
	}

	votes, err := uc.Votes.ListVotesByProposal(ctx, proposalID)
	if err != nil {
		return TallyResult{}, err
	}
	for _, vote := range votes {
		if _, ok := totals[vote.Choice]; !ok {
			continue
		}
		totals[vote.Choice] += vote.Weight
	}
	return TallyResult{
		ProposalID: proposalID,
		Totals:     totals,
		VoteCount:  len(votes),
	}, nil
}

// TallyFor adapts the tally to the totals-only shape settlement consumes.
func (uc TallyUseCase) TallyFor(ctx context.Context, proposalID string) (map[string]int64, error) {
	result, err := uc.Tally(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return result.Totals, nil
}

type VoteQueryUseCase struct {
	Votes ports.VoteRepository
}

func (uc VoteQueryUseCase) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
}

// FindVoterVote returns the ballot a voter cast on a proposal.
func (uc VoteQueryUseCase) FindVoterVote(ctx context.Context, proposalID string, voterAddress string) (entities.Vote, error) {
	vote, found, err := uc.Votes.GetVoteByVoter(ctx, strings.TrimSpace(proposalID), strings.TrimSpace(voterAddress))
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (uc VoteQueryUseCase) ListVotesByProposal(ctx context.Context, proposalID string) ([]entities.Vote, error) {
	return uc.Votes.ListVotesByProposal(ctx, strings.TrimSpace(proposalID))
}

func (uc VoteQueryUseCase) ListVotesByDAO(ctx context.Context, daoID string) ([]entities.Vote, error) {
	return uc.Votes.ListVotesByDAO(ctx, strings.TrimSpace(daoID))
}
