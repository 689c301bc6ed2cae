package queries

import (
	"context"
	"strings"
	"time"

	"agora/contexts/governance/proposal-service/domain/entities"
	"agora/contexts/governance/proposal-service/ports"
)

type ProposalQueryUseCase struct {
	Proposals ports.ProposalRepository
	Clock     ports.Clock
}

func (uc ProposalQueryUseCase) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	return uc.Proposals.GetProposal(ctx, strings.TrimSpace(proposalID))
}

func (uc ProposalQueryUseCase) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	return uc.Proposals.ListProposals(ctx, filter)
}

// ListActiveByDAO returns active proposals whose voting window is still open
// at query time. Rows the sweeper has not flipped yet are filtered out.
func (uc ProposalQueryUseCase) ListActiveByDAO(ctx context.Context, daoID string) ([]entities.Proposal, error) {
	proposals, err := uc.Proposals.ListProposals(ctx, ports.ProposalFilter{
		DAOID:  strings.TrimSpace(daoID),
		Status: entities.ProposalStatusActive,
	})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	open := make([]entities.Proposal, 0, len(proposals))
	for _, proposal := range proposals {
		if proposal.EndTime.After(now) {
			open = append(open, proposal)
		}
	}
	return open, nil
}
