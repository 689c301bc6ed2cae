package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance/dao-directory/application"
	"agora/contexts/governance/dao-directory/domain/entities"
	domainerrors "agora/contexts/governance/dao-directory/domain/errors"
	"agora/contexts/governance/dao-directory/ports"
)

type UpdateDAOStatusUseCase struct {
	DAOs   ports.DAORepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc UpdateDAOStatusUseCase) Execute(ctx context.Context, daoID string, status entities.DAOStatus) (entities.DAO, error) {
	logger := application.ResolveLogger(uc.Logger)
	daoID = strings.TrimSpace(daoID)
	if !entities.IsSupportedDAOStatus(status) {
		return entities.DAO{}, domainerrors.ErrInvalidDAOStatus
	}

	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	if err := uc.DAOs.UpdateDAOStatus(ctx, daoID, status, now); err != nil {
		return entities.DAO{}, err
	}
	dao, err := uc.DAOs.GetDAO(ctx, daoID)
	if err != nil {
		return entities.DAO{}, err
	}

	logger.Info("dao status updated",
		"event", "directory_dao_status_updated",
		"module", "governance/dao-directory",
		"layer", "application",
		"dao_id", daoID,
		"status", string(status),
	)
	return dao, nil
}
