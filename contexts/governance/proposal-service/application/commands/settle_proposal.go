package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance/proposal-service/application"
	"agora/contexts/governance/proposal-service/domain/entities"
	domainerrors "agora/contexts/governance/proposal-service/domain/errors"
	"agora/contexts/governance/proposal-service/ports"
)

// SettlementResult reports the decided outcome together with the tally it
// was derived from.
type SettlementResult struct {
	Proposal    entities.Proposal
	Tally       map[string]int64
	TotalWeight int64
	YesWeight   int64
}

type SettleProposalUseCase struct {
	Proposals ports.ProposalRepository
	Directory ports.DAODirectory
	Tallies   ports.TallySource
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute decides a proposal whose voting window has closed: still active
// past its end time, or already swept to expired. The proposal passes when
// the YES share of all cast weight reaches the DAO threshold; a proposal
// nobody voted on is rejected.
func (uc SettleProposalUseCase) Execute(ctx context.Context, proposalID string) (SettlementResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID = strings.TrimSpace(proposalID)

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return SettlementResult{}, err
	}
	if proposal.Status != entities.ProposalStatusActive && proposal.Status != entities.ProposalStatusExpired {
		return SettlementResult{}, domainerrors.ErrProposalNotSettleable
	}
	now := uc.now()
	if proposal.Status == entities.ProposalStatusActive && now.Before(proposal.EndTime) {
		return SettlementResult{}, domainerrors.ErrProposalNotSettleable
	}

	dao, err := uc.Directory.GetDAO(ctx, proposal.DAOID)
	if err != nil {
		return SettlementResult{}, err
	}
	tally, err := uc.Tallies.TallyFor(ctx, proposalID)
	if err != nil {
		return SettlementResult{}, err
	}

	var total int64
	for _, weight := range tally {
		total += weight
	}
	yes := tally["YES"]

	outcome := entities.ProposalStatusRejected
	if total > 0 && yes*100 >= int64(dao.ThresholdPercent)*total {
		outcome = entities.ProposalStatusPassed
	}

	if err := uc.Proposals.UpdateProposalStatus(ctx, proposalID, outcome, now); err != nil {
		return SettlementResult{}, err
	}
	proposal.Status = outcome
	proposal.UpdatedAt = now

	if err := uc.appendSettledEvent(ctx, proposal, yes, total, now); err != nil {
		return SettlementResult{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}

	logger.Info("proposal settled",
		"event", "proposal_settled",
		"module", "governance/proposal-service",
		"layer", "application",
		"proposal_id", proposalID,
		"dao_id", proposal.DAOID,
		"outcome", string(outcome),
		"total_weight", total,
		"yes_weight", yes,
	)
	return SettlementResult{
		Proposal:    proposal,
		Tally:       tally,
		TotalWeight: total,
		YesWeight:   yes,
	}, nil
}

func (uc SettleProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc SettleProposalUseCase) appendSettledEvent(
	ctx context.Context,
	proposal entities.Proposal,
	yes int64,
	total int64,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProposalEnvelope(eventID, "proposal.settled", proposal.DAOID, occurredAt, map[string]any{
		"proposal_id":  proposal.ProposalID,
		"dao_id":       proposal.DAOID,
		"outcome":      string(proposal.Status),
		"yes_weight":   yes,
		"total_weight": total,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
