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

// CreateDAOCommand is the write-model input for DAO registration.
type CreateDAOCommand struct {
	Name         string
	Description  string
	OwnerAddress string
	Status       entities.DAOStatus
	VotingRules  entities.VotingRules
	Members      []string
}

type CreateDAOUseCase struct {
	DAOs   ports.DAORepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute validates the command, generates a dao id, and persists the DAO.
// When no member list is given the membership set starts as just the owner;
// an explicit list is stored as provided, deduplicated.
func (uc CreateDAOUseCase) Execute(ctx context.Context, cmd CreateDAOCommand) (entities.DAO, error) {
	logger := application.ResolveLogger(uc.Logger)

	name := strings.TrimSpace(cmd.Name)
	description := strings.TrimSpace(cmd.Description)
	owner := strings.TrimSpace(cmd.OwnerAddress)
	if name == "" || description == "" || owner == "" || !cmd.VotingRules.Valid() {
		logger.Warn("dao create validation failed",
			"event", "directory_dao_create_validation_failed",
			"module", "governance/dao-directory",
			"layer", "application",
			"owner_address", owner,
		)
		return entities.DAO{}, domainerrors.ErrInvalidDAOInput
	}

	status := cmd.Status
	if status == "" {
		status = entities.DAOStatusPending
	}
	if !entities.IsSupportedDAOStatus(status) {
		return entities.DAO{}, domainerrors.ErrInvalidDAOStatus
	}

	members := entities.DedupeMembers(cmd.Members)
	if len(members) == 0 {
		members = []string{owner}
	}

	now := uc.now()
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.DAO{}, err
	}
	dao := entities.DAO{
		DAOID:        "dao-" + id,
		Name:         name,
		Description:  description,
		OwnerAddress: owner,
		Status:       status,
		VotingRules:  cmd.VotingRules,
		Members:      members,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.DAOs.CreateDAO(ctx, dao); err != nil {
		return entities.DAO{}, err
	}

	if err := uc.appendDirectoryEvent(ctx, "dao.created", dao.DAOID, now, map[string]any{
		"dao_id":        dao.DAOID,
		"owner_address": dao.OwnerAddress,
		"status":        string(dao.Status),
	}); err != nil {
		return entities.DAO{}, fmt.Errorf("%w: %v", domainerrors.ErrNotificationFailed, err)
	}

	logger.Info("dao created",
		"event", "directory_dao_created",
		"module", "governance/dao-directory",
		"layer", "application",
		"dao_id", dao.DAOID,
		"owner_address", dao.OwnerAddress,
		"member_count", len(dao.Members),
	)
	return dao, nil
}

func (uc CreateDAOUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc CreateDAOUseCase) appendDirectoryEvent(
	ctx context.Context,
	eventType string,
	daoID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newDirectoryEnvelope(eventID, eventType, daoID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
