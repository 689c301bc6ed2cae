package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance/proposal-service/application/commands"
	"agora/contexts/governance/proposal-service/application/queries"
	"agora/contexts/governance/proposal-service/domain/entities"
	domainerrors "agora/contexts/governance/proposal-service/domain/errors"
	"agora/contexts/governance/proposal-service/ports"
	httptransport "agora/contexts/governance/proposal-service/transport/http"
)

type Handler struct {
	CreateProposal commands.CreateProposalUseCase
	UpdateStatus   commands.UpdateProposalStatusUseCase
	Settle         commands.SettleProposalUseCase
	Queries        queries.ProposalQueryUseCase
	Logger         *slog.Logger
}

func (h Handler) CreateProposalHandler(ctx context.Context, req httptransport.CreateProposalRequest) (httptransport.ProposalResponse, error) {
	startTime, err := parseOptionalTime(req.StartTime)
	if err != nil {
		return httptransport.ProposalResponse{}, domainerrors.ErrInvalidProposalInput
	}
	endTime, err := parseOptionalTime(req.EndTime)
	if err != nil || endTime.IsZero() {
		return httptransport.ProposalResponse{}, domainerrors.ErrInvalidProposalInput
	}
	proposal, err := h.CreateProposal.Execute(ctx, commands.CreateProposalCommand{
		DAOID:          req.DAOID,
		Title:          req.Title,
		Description:    req.Description,
		CreatorAddress: req.CreatorAddress,
		VotingOptions:  req.VotingOptions,
		StartTime:      startTime,
		EndTime:        endTime,
		ProposalData:   req.ProposalData,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context, daoID string, creator string, status string) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.ListProposals(ctx, ports.ProposalFilter{
		DAOID:          daoID,
		CreatorAddress: creator,
		Status:         entities.ProposalStatus(status),
	})
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	return mapProposalList(proposals), nil
}

func (h Handler) ListActiveProposalsHandler(ctx context.Context, daoID string) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.ListActiveByDAO(ctx, daoID)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	return mapProposalList(proposals), nil
}

func (h Handler) UpdateStatusHandler(ctx context.Context, proposalID string, req httptransport.UpdateProposalStatusRequest) (httptransport.ProposalResponse, error) {
	proposal, err := h.UpdateStatus.Execute(ctx, proposalID, entities.ProposalStatus(req.Status))
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) SettleProposalHandler(ctx context.Context, proposalID string) (httptransport.SettlementResponse, error) {
	result, err := h.Settle.Execute(ctx, proposalID)
	if err != nil {
		return httptransport.SettlementResponse{}, err
	}
	return httptransport.SettlementResponse{
		Proposal:    mapProposal(result.Proposal),
		Tally:       result.Tally,
		TotalWeight: result.TotalWeight,
		YesWeight:   result.YesWeight,
	}, nil
}

func mapProposalList(proposals []entities.Proposal) httptransport.ProposalListResponse {
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, mapProposal(proposal))
	}
	return httptransport.ProposalListResponse{Items: items}
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ProposalID:     proposal.ProposalID,
		DAOID:          proposal.DAOID,
		Title:          proposal.Title,
		Description:    proposal.Description,
		CreatorAddress: proposal.CreatorAddress,
		Status:         string(proposal.Status),
		VotingOptions:  proposal.VotingOptions,
		StartTime:      proposal.StartTime.UTC().Format(time.RFC3339),
		EndTime:        proposal.EndTime.UTC().Format(time.RFC3339),
		ProposalData:   proposal.ProposalData,
		CreatedAt:      proposal.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      proposal.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func parseOptionalTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
