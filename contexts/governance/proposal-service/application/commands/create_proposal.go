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

// CreateProposalCommand is the write-model input for proposal submission.
type CreateProposalCommand struct {
	DAOID          string
	Title          string
	Description    string
	CreatorAddress string
	VotingOptions  []string
	StartTime      time.Time
	EndTime        time.Time
	ProposalData   []byte
}

type CreateProposalUseCase struct {
	Proposals ports.ProposalRepository
	Directory ports.DAODirectory
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute admits a proposal into its DAO. The creator must be a member and
// the voting window must satisfy the DAO's minimum voting period.
func (uc CreateProposalUseCase) Execute(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)

	daoID := strings.TrimSpace(cmd.DAOID)
	title := strings.TrimSpace(cmd.Title)
	description := strings.TrimSpace(cmd.Description)
	creator := strings.TrimSpace(cmd.CreatorAddress)
	if daoID == "" || title == "" || description == "" || creator == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	dao, err := uc.Directory.GetDAO(ctx, daoID)
	if err != nil {
		return entities.Proposal{}, err
	}
	isMember, err := uc.Directory.IsMember(ctx, daoID, creator)
	if err != nil {
		return entities.Proposal{}, err
	}
	if !isMember {
		logger.Warn("proposal creator rejected",
			"event", "proposal_creator_not_member",
			"module", "governance/proposal-service",
			"layer", "application",
			"dao_id", daoID,
			"creator_address", creator,
		)
		return entities.Proposal{}, domainerrors.ErrCreatorNotMember
	}

	now := uc.now()
	startTime := cmd.StartTime.UTC()
	if cmd.StartTime.IsZero() {
		startTime = now
	}
	endTime := cmd.EndTime.UTC()
	if !endTime.After(startTime) {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}
	if endTime.Sub(startTime) < time.Duration(dao.MinVotingPeriodHours)*time.Hour {
		return entities.Proposal{}, domainerrors.ErrVotingPeriodTooShort
	}

	options := entities.NormalizeVotingOptions(cmd.VotingOptions)
	if len(options) == 0 {
		options = entities.DefaultVotingOptions()
	}
	if len(options) > entities.MaxVotingOptions {
		return entities.Proposal{}, domainerrors.ErrTooManyVotingOptions
	}

	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Proposal{}, err
	}
	proposal := entities.Proposal{
		ProposalID:     "prop-" + id,
		DAOID:          daoID,
		Title:          title,
		Description:    description,
		CreatorAddress: creator,
		Status:         entities.ProposalStatusActive,
		VotingOptions:  options,
		StartTime:      startTime,
		EndTime:        endTime,
		ProposalData:   cmd.ProposalData,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.Proposals.CreateProposal(ctx, proposal); err != nil {
		return entities.Proposal{}, err
	}
	if err := uc.Directory.AddProposalRef(ctx, daoID, proposal.ProposalID); err != nil {
		return entities.Proposal{}, err
	}

	if err := uc.appendProposalEvent(ctx, "proposal.created", proposal, now, map[string]any{
		"proposal_id":     proposal.ProposalID,
		"dao_id":          proposal.DAOID,
		"creator_address": proposal.CreatorAddress,
		"end_time":        proposal.EndTime.Format(time.RFC3339),
	}); err != nil {
		return entities.Proposal{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}

	logger.Info("proposal created",
		"event", "proposal_created",
		"module", "governance/proposal-service",
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"dao_id", proposal.DAOID,
		"creator_address", proposal.CreatorAddress,
	)
	return proposal, nil
}

func (uc CreateProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CreateProposalUseCase) appendProposalEvent(
	ctx context.Context,
	eventType string,
	proposal entities.Proposal,
	occurredAt time.Time,
	data map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newProposalEnvelope(eventID, eventType, proposal.DAOID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
