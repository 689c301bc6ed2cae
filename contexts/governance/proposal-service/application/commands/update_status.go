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

type UpdateProposalStatusUseCase struct {
	Proposals ports.ProposalRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute moves a proposal along its lifecycle. Terminal proposals and
// unknown transitions are rejected before any write happens.
func (uc UpdateProposalStatusUseCase) Execute(ctx context.Context, proposalID string, status entities.ProposalStatus) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposalID = strings.TrimSpace(proposalID)
	if !entities.IsSupportedProposalStatus(status) {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalStatus
	}

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if !entities.IsAllowedTransition(proposal.Status, status) {
		return entities.Proposal{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	if err := uc.Proposals.UpdateProposalStatus(ctx, proposalID, status, now); err != nil {
		return entities.Proposal{}, err
	}
	from := proposal.Status
	proposal.Status = status
	proposal.UpdatedAt = now

	if err := uc.appendStatusEvent(ctx, proposal, from, now); err != nil {
		return entities.Proposal{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}

	logger.Info("proposal status changed",
		"event", "proposal_status_changed",
		"module", "governance/proposal-service",
		"layer", "application",
		"proposal_id", proposalID,
		"from_status", string(from),
		"to_status", string(status),
	)
	return proposal, nil
}

func (uc UpdateProposalStatusUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc UpdateProposalStatusUseCase) appendStatusEvent(
	ctx context.Context,
	proposal entities.Proposal,
	from entities.ProposalStatus,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProposalEnvelope(eventID, "proposal.status_changed", proposal.DAOID, occurredAt, map[string]any{
		"proposal_id": proposal.ProposalID,
		"dao_id":      proposal.DAOID,
		"from_status": string(from),
		"to_status":   string(proposal.Status),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
