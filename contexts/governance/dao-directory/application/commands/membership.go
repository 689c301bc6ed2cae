package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance/dao-directory/application"
	"agora/contexts/governance/dao-directory/domain/entities"
	domainerrors "agora/contexts/governance/dao-directory/domain/errors"
	"agora/contexts/governance/dao-directory/ports"
)

// MembershipUseCase mutates a DAO's membership set. Both operations are
// expressed as single conditional store writes so concurrent callers on the
// same DAO cannot lose updates.
type MembershipUseCase struct {
	DAOs   ports.DAORepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// AddMember adds the address to the membership set. Repeated calls with an
// existing member return the current DAO unchanged and emit nothing.
func (uc MembershipUseCase) AddMember(ctx context.Context, daoID string, address string) (entities.DAO, error) {
	logger := application.ResolveLogger(uc.Logger)
	daoID = strings.TrimSpace(daoID)
	address = strings.TrimSpace(address)
	if daoID == "" || address == "" {
		return entities.DAO{}, domainerrors.ErrInvalidDAOInput
	}

	now := uc.now()
	added, err := uc.DAOs.AddMember(ctx, daoID, address, now)
	if err != nil {
		return entities.DAO{}, err
	}
	dao, err := uc.DAOs.GetDAO(ctx, daoID)
	if err != nil {
		return entities.DAO{}, err
	}
	if !added {
		return dao, nil
	}

	if err := uc.appendMembershipEvent(ctx, "dao.member_added", daoID, address, now); err != nil {
		return entities.DAO{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}
	logger.Info("dao member added",
		"event", "directory_member_added",
		"module", "governance/dao-directory",
		"layer", "application",
		"dao_id", daoID,
		"member_address", address,
	)
	return dao, nil
}

// RemoveMember removes the address from the membership set. Removing an
// absent member is a no-op, not an error.
func (uc MembershipUseCase) RemoveMember(ctx context.Context, daoID string, address string) (entities.DAO, error) {
	logger := application.ResolveLogger(uc.Logger)
	daoID = strings.TrimSpace(daoID)
	address = strings.TrimSpace(address)
	if daoID == "" || address == "" {
		return entities.DAO{}, domainerrors.ErrInvalidDAOInput
	}

	now := uc.now()
	removed, err := uc.DAOs.RemoveMember(ctx, daoID, address, now)
	if err != nil {
		return entities.DAO{}, err
	}
	dao, err := uc.DAOs.GetDAO(ctx, daoID)
	if err != nil {
		return entities.DAO{}, err
	}
	if !removed {
		return dao, nil
	}

	if err := uc.appendMembershipEvent(ctx, "dao.member_removed", daoID, address, now); err != nil {
		return entities.DAO{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}
	logger.Info("dao member removed",
		"event", "directory_member_removed",
		"module", "governance/dao-directory",
		"layer", "application",
		"dao_id", daoID,
		"member_address", address,
	)
	return dao, nil
}

// AddProposalRef registers a proposal against the DAO's proposal list with
// set semantics; replaying the same reference is a no-op.
func (uc MembershipUseCase) AddProposalRef(ctx context.Context, daoID string, proposalID string) error {
	daoID = strings.TrimSpace(daoID)
	proposalID = strings.TrimSpace(proposalID)
	if daoID == "" || proposalID == "" {
		return domainerrors.ErrInvalidDAOInput
	}
	return uc.DAOs.AddProposalRef(ctx, daoID, proposalID, uc.now())
}

func (uc MembershipUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc MembershipUseCase) appendMembershipEvent(
	ctx context.Context,
	eventType string,
	daoID string,
	address string,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newDirectoryEnvelope(eventID, eventType, daoID, occurredAt, map[string]any{
		"dao_id":         daoID,
		"member_address": address,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
