package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/proposal-service/domain/entities"
	domainerrors "agora/contexts/governance/proposal-service/domain/errors"
	"agora/contexts/governance/proposal-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateProposal(ctx context.Context, proposal entities.Proposal) error {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return r.logError("proposal_repo_encode_failed", err, "proposal_id", proposal.ProposalID)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("proposal_repo_create_failed", err, "proposal_id", proposal.ProposalID)
	}
	return nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(proposalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("proposal_repo_get_failed", err, "proposal_id", strings.TrimSpace(proposalID))
	}
	return row.toEntity()
}

func (r *Repository) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	tx := r.db.WithContext(ctx).Model(&proposalModel{})
	if daoID := strings.TrimSpace(filter.DAOID); daoID != "" {
		tx = tx.Where("dao_id = ?", daoID)
	}
	if creator := strings.TrimSpace(filter.CreatorAddress); creator != "" {
		tx = tx.Where("creator_address = ?", creator)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	var rows []proposalModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_failed", err)
	}
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := row.toEntity()
		if err != nil {
			return nil, r.logError("proposal_repo_decode_failed", err, "proposal_id", row.ID)
		}
		items = append(items, proposal)
	}
	return items, nil
}

func (r *Repository) UpdateProposalStatus(ctx context.Context, proposalID string, status entities.ProposalStatus, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&proposalModel{}).
		Where("id = ?", strings.TrimSpace(proposalID)).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("proposal_repo_update_status_failed", result.Error, "proposal_id", strings.TrimSpace(proposalID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProposalNotFound
	}
	return nil
}

// ExpireProposalsPastEndTime locks the candidate rows before flipping them so
// overlapping sweeps never expire the same proposal twice.
func (r *Repository) ExpireProposalsPastEndTime(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	if limit <= 0 {
		limit = 100
	}
	timestamp := now.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	expired := make([]entities.Proposal, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []proposalModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND end_time < ?", string(entities.ProposalStatusActive), timestamp).
			Order("end_time ASC").
			Limit(limit).
			Find(&rows).
			Error; err != nil {
			return err
		}
		for _, row := range rows {
			if err := tx.Model(&proposalModel{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"status":     string(entities.ProposalStatusExpired),
					"updated_at": timestamp,
				}).Error; err != nil {
				return err
			}
			proposal, err := row.toEntity()
			if err != nil {
				return err
			}
			proposal.Status = entities.ProposalStatusExpired
			proposal.UpdatedAt = timestamp
			expired = append(expired, proposal)
		}
		return nil
	})
	if err != nil {
		return nil, r.logError("proposal_repo_expire_sweep_failed", err)
	}
	return expired, nil
}

func (r *Repository) GetDAO(ctx context.Context, daoID string) (ports.DAOProjection, error) {
	var row daoProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(daoID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DAOProjection{}, domainerrors.ErrDAONotFound
		}
		return ports.DAOProjection{}, r.logError("proposal_repo_get_dao_failed", err, "dao_id", strings.TrimSpace(daoID))
	}
	return ports.DAOProjection{
		DAOID:                row.ID,
		Status:               row.Status,
		ThresholdPercent:     row.ThresholdPercent,
		MinVotingPeriodHours: row.MinVotingHours,
		TokenWeighted:        row.TokenWeighted,
	}, nil
}

func (r *Repository) IsMember(ctx context.Context, daoID string, address string) (bool, error) {
	if _, err := r.GetDAO(ctx, daoID); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&daoMemberProjectionModel{}).
		Where("dao_id = ?", strings.TrimSpace(daoID)).
		Where("member_address = ?", strings.TrimSpace(address)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("proposal_repo_is_member_failed", err,
			"dao_id", strings.TrimSpace(daoID),
			"member_address", strings.TrimSpace(address),
		)
	}
	return count > 0, nil
}

func (r *Repository) AddProposalRef(ctx context.Context, daoID string, proposalID string) error {
	row := proposalRefModel{
		DAOID:      strings.TrimSpace(daoID),
		ProposalID: strings.TrimSpace(proposalID),
		AddedAt:    time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dao_id"}, {Name: "proposal_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("proposal_repo_add_ref_failed", create.Error,
			"dao_id", row.DAOID,
			"proposal_id", row.ProposalID,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("proposal_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("proposal_repo_append_outbox_failed", create.Error, "outbox_id", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("proposal_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/proposal-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("proposal repository operation failed", fields...)
	return err
}

type proposalModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	DAOID          string    `gorm:"column:dao_id;index"`
	Title          string    `gorm:"column:title"`
	Description    string    `gorm:"column:description"`
	CreatorAddress string    `gorm:"column:creator_address"`
	Status         string    `gorm:"column:status;index"`
	VotingOptions  string    `gorm:"column:voting_options"`
	StartTime      time.Time `gorm:"column:start_time"`
	EndTime        time.Time `gorm:"column:end_time;index"`
	ProposalData   []byte    `gorm:"column:proposal_data"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) (proposalModel, error) {
	options, err := json.Marshal(proposal.VotingOptions)
	if err != nil {
		return proposalModel{}, err
	}
	row := proposalModel{
		ID:             strings.TrimSpace(proposal.ProposalID),
		DAOID:          strings.TrimSpace(proposal.DAOID),
		Title:          strings.TrimSpace(proposal.Title),
		Description:    strings.TrimSpace(proposal.Description),
		CreatorAddress: strings.TrimSpace(proposal.CreatorAddress),
		Status:         string(proposal.Status),
		VotingOptions:  string(options),
		StartTime:      proposal.StartTime.UTC(),
		EndTime:        proposal.EndTime.UTC(),
		ProposalData:   append([]byte(nil), proposal.ProposalData...),
		CreatedAt:      proposal.CreatedAt.UTC(),
		UpdatedAt:      proposal.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m proposalModel) toEntity() (entities.Proposal, error) {
	var options []string
	if m.VotingOptions != "" {
		if err := json.Unmarshal([]byte(m.VotingOptions), &options); err != nil {
			return entities.Proposal{}, err
		}
	}
	return entities.Proposal{
		ProposalID:     m.ID,
		DAOID:          m.DAOID,
		Title:          m.Title,
		Description:    m.Description,
		CreatorAddress: m.CreatorAddress,
		Status:         entities.ProposalStatus(m.Status),
		VotingOptions:  options,
		StartTime:      m.StartTime.UTC(),
		EndTime:        m.EndTime.UTC(),
		ProposalData:   append([]byte(nil), m.ProposalData...),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

type daoProjectionModel struct {
	ID               string `gorm:"column:id;primaryKey"`
	Status           string `gorm:"column:status"`
	ThresholdPercent int    `gorm:"column:threshold_percent"`
	MinVotingHours   int    `gorm:"column:min_voting_period_hours"`
	TokenWeighted    bool   `gorm:"column:token_weighted"`
}

func (daoProjectionModel) TableName() string {
	return "daos"
}

type daoMemberProjectionModel struct {
	DAOID         string `gorm:"column:dao_id;primaryKey"`
	MemberAddress string `gorm:"column:member_address;primaryKey"`
}

func (daoMemberProjectionModel) TableName() string {
	return "dao_members"
}

type proposalRefModel struct {
	DAOID      string    `gorm:"column:dao_id;primaryKey"`
	ProposalID string    `gorm:"column:proposal_id;primaryKey"`
	AddedAt    time.Time `gorm:"column:added_at"`
}

func (proposalRefModel) TableName() string {
	return "dao_proposal_refs"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "proposal_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.DAODirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
