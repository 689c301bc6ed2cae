package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance/voting-engine/application/commands"
	"agora/contexts/governance/voting-engine/application/queries"
	"agora/contexts/governance/voting-engine/domain/entities"
	httptransport "agora/contexts/governance/voting-engine/transport/http"
)

type Handler struct {
	CastVote commands.CastVoteUseCase
	Tallies  queries.TallyUseCase
	Votes    queries.VoteQueryUseCase
	Logger   *slog.Logger
}

func (h Handler) CastVoteHandler(ctx context.Context, req httptransport.CastVoteRequest) (httptransport.VoteResponse, error) {
	vote, err := h.CastVote.Execute(ctx, commands.CastVoteCommand{
		ProposalID:   req.ProposalID,
		VoterAddress: req.VoterAddress,
		Choice:       req.Choice,
		Comment:      req.Comment,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) GetVoteHandler(ctx context.Context, voteID string) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.GetVote(ctx, voteID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) FindVoterVoteHandler(ctx context.Context, proposalID string, voterAddress string) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.FindVoterVote(ctx, proposalID, voterAddress)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) ListProposalVotesHandler(ctx context.Context, proposalID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Votes.ListVotesByProposal(ctx, proposalID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	return mapVoteList(votes), nil
}

func (h Handler) ListDAOVotesHandler(ctx context.Context, daoID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Votes.ListVotesByDAO(ctx, daoID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	return mapVoteList(votes), nil
}

func (h Handler) TallyHandler(ctx context.Context, proposalID string) (httptransport.TallyResponse, error) {
	result, err := h.Tallies.Tally(ctx, proposalID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.TallyResponse{
		ProposalID: result.ProposalID,
		Totals:     result.Totals,
		VoteCount:  result.VoteCount,
	}, nil
}

func mapVoteList(votes []entities.Vote) httptransport.VoteListResponse {
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:       vote.VoteID,
		ProposalID:   vote.ProposalID,
		DAOID:        vote.DAOID,
		VoterAddress: vote.VoterAddress,
		Choice:       vote.Choice,
		Weight:       vote.Weight,
		Comment:      vote.Comment,
		CastAt:       vote.CastAt.UTC().Format(time.RFC3339),
	}
}
