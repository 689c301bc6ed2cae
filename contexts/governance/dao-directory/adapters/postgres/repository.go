package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/dao-directory/domain/entities"
	domainerrors "agora/contexts/governance/dao-directory/domain/errors"
	"agora/contexts/governance/dao-directory/ports"

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

func (r *Repository) CreateDAO(ctx context.Context, dao entities.DAO) error {
	row := daoModelFromEntity(dao)
	memberRows := memberModelsFromEntity(dao)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(memberRows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dao_id"}, {Name: "member_address"}},
			DoNothing: true,
		}).Create(&memberRows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("directory_repo_create_dao_failed", err, "dao_id", dao.DAOID)
	}
	return nil
}

func (r *Repository) GetDAO(ctx context.Context, daoID string) (entities.DAO, error) {
	var row daoModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(daoID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DAO{}, domainerrors.ErrDAONotFound
		}
		return entities.DAO{}, r.logError("directory_repo_get_dao_failed", err, "dao_id", strings.TrimSpace(daoID))
	}
	members, err := r.listMembers(ctx, row.ID)
	if err != nil {
		return entities.DAO{}, err
	}
	return row.toEntity(members), nil
}

func (r *Repository) ListDAOs(ctx context.Context, filter ports.DAOFilter) ([]entities.DAO, error) {
	tx := r.db.WithContext(ctx).Model(&daoModel{})
	if owner := strings.TrimSpace(filter.OwnerAddress); owner != "" {
		tx = tx.Where("owner_address = ?", owner)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	var rows []daoModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("directory_repo_list_daos_failed", err)
	}
	items := make([]entities.DAO, 0, len(rows))
	for _, row := range rows {
		members, err := r.listMembers(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, row.toEntity(members))
	}
	return items, nil
}

func (r *Repository) UpdateDAOStatus(ctx context.Context, daoID string, status entities.DAOStatus, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&daoModel{}).
		Where("id = ?", strings.TrimSpace(daoID)).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("directory_repo_update_status_failed", result.Error, "dao_id", strings.TrimSpace(daoID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDAONotFound
	}
	return nil
}

// AddMember is a single conditional insert; the ON CONFLICT clause makes the
// replay path visible through RowsAffected instead of an error.
func (r *Repository) AddMember(ctx context.Context, daoID string, address string, updatedAt time.Time) (bool, error) {
	if err := r.requireDAO(ctx, daoID); err != nil {
		return false, err
	}
	row := daoMemberModel{
		DAOID:         strings.TrimSpace(daoID),
		MemberAddress: strings.TrimSpace(address),
		AddedAt:       updatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dao_id"}, {Name: "member_address"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("directory_repo_add_member_failed", create.Error,
			"dao_id", row.DAOID,
			"member_address", row.MemberAddress,
		)
	}
	if create.RowsAffected == 0 {
		return false, nil
	}
	r.touchDAO(ctx, row.DAOID, updatedAt)
	return true, nil
}

// RemoveMember is a single conditional delete; absence shows up as zero rows.
func (r *Repository) RemoveMember(ctx context.Context, daoID string, address string, updatedAt time.Time) (bool, error) {
	if err := r.requireDAO(ctx, daoID); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Where("dao_id = ?", strings.TrimSpace(daoID)).
		Where("member_address = ?", strings.TrimSpace(address)).
		Delete(&daoMemberModel{})
	if result.Error != nil {
		return false, r.logError("directory_repo_remove_member_failed", result.Error,
			"dao_id", strings.TrimSpace(daoID),
			"member_address", strings.TrimSpace(address),
		)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	r.touchDAO(ctx, strings.TrimSpace(daoID), updatedAt)
	return true, nil
}

func (r *Repository) IsMember(ctx context.Context, daoID string, address string) (bool, error) {
	if err := r.requireDAO(ctx, daoID); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&daoMemberModel{}).
		Where("dao_id = ?", strings.TrimSpace(daoID)).
		Where("member_address = ?", strings.TrimSpace(address)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("directory_repo_is_member_failed", err,
			"dao_id", strings.TrimSpace(daoID),
			"member_address", strings.TrimSpace(address),
		)
	}
	return count > 0, nil
}

func (r *Repository) AddProposalRef(ctx context.Context, daoID string, proposalID string, updatedAt time.Time) error {
	if err := r.requireDAO(ctx, daoID); err != nil {
		return err
	}
	row := proposalRefModel{
		DAOID:      strings.TrimSpace(daoID),
		ProposalID: strings.TrimSpace(proposalID),
		AddedAt:    updatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dao_id"}, {Name: "proposal_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("directory_repo_add_proposal_ref_failed", create.Error,
			"dao_id", row.DAOID,
			"proposal_id", row.ProposalID,
		)
	}
	return nil
}

func (r *Repository) ListProposalRefs(ctx context.Context, daoID string) ([]string, error) {
	if err := r.requireDAO(ctx, daoID); err != nil {
		return nil, err
	}
	var rows []proposalRefModel
	if err := r.db.WithContext(ctx).
		Where("dao_id = ?", strings.TrimSpace(daoID)).
		Order("added_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("directory_repo_list_proposal_refs_failed", err,
			"dao_id", strings.TrimSpace(daoID),
		)
	}
	refs := make([]string, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.ProposalID)
	}
	return refs, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("directory_repo_append_outbox_marshal_failed", err,
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
		return r.logError("directory_repo_append_outbox_failed", create.Error, "outbox_id", row.OutboxID)
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
		return nil, r.logError("directory_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("directory_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) requireDAO(ctx context.Context, daoID string) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&daoModel{}).
		Where("id = ?", strings.TrimSpace(daoID)).
		Count(&count).
		Error
	if err != nil {
		return r.logError("directory_repo_require_dao_failed", err, "dao_id", strings.TrimSpace(daoID))
	}
	if count == 0 {
		return domainerrors.ErrDAONotFound
	}
	return nil
}

func (r *Repository) touchDAO(ctx context.Context, daoID string, updatedAt time.Time) {
	if err := r.db.WithContext(ctx).
		Model(&daoModel{}).
		Where("id = ?", daoID).
		Update("updated_at", updatedAt.UTC()).Error; err != nil {
		r.logger.Warn("directory dao touch failed",
			"event", "directory_repo_touch_dao_failed",
			"module", "governance/dao-directory",
			"layer", "adapter",
			"dao_id", daoID,
			"error", err.Error(),
		)
	}
}

func (r *Repository) listMembers(ctx context.Context, daoID string) ([]string, error) {
	var rows []daoMemberModel
	if err := r.db.WithContext(ctx).
		Where("dao_id = ?", daoID).
		Order("member_address ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("directory_repo_list_members_failed", err, "dao_id", daoID)
	}
	members := make([]string, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.MemberAddress)
	}
	return members, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/dao-directory",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("directory repository operation failed", fields...)
	return err
}

type daoModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	Name             string    `gorm:"column:name"`
	Description      string    `gorm:"column:description"`
	OwnerAddress     string    `gorm:"column:owner_address"`
	Status           string    `gorm:"column:status"`
	ThresholdPercent int       `gorm:"column:threshold_percent"`
	MinVotingHours   int       `gorm:"column:min_voting_period_hours"`
	TokenWeighted    bool      `gorm:"column:token_weighted"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (daoModel) TableName() string {
	return "daos"
}

func daoModelFromEntity(dao entities.DAO) daoModel {
	row := daoModel{
		ID:               strings.TrimSpace(dao.DAOID),
		Name:             strings.TrimSpace(dao.Name),
		Description:      strings.TrimSpace(dao.Description),
		OwnerAddress:     strings.TrimSpace(dao.OwnerAddress),
		Status:           string(dao.Status),
		ThresholdPercent: dao.VotingRules.ThresholdPercent,
		MinVotingHours:   dao.VotingRules.MinVotingPeriodHours,
		TokenWeighted:    dao.VotingRules.TokenWeighted,
		CreatedAt:        dao.CreatedAt.UTC(),
		UpdatedAt:        dao.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m daoModel) toEntity(members []string) entities.DAO {
	return entities.DAO{
		DAOID:        m.ID,
		Name:         m.Name,
		Description:  m.Description,
		OwnerAddress: m.OwnerAddress,
		Status:       entities.DAOStatus(m.Status),
		VotingRules: entities.VotingRules{
			ThresholdPercent:     m.ThresholdPercent,
			MinVotingPeriodHours: m.MinVotingHours,
			TokenWeighted:        m.TokenWeighted,
		},
		Members:   members,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type daoMemberModel struct {
	DAOID         string    `gorm:"column:dao_id;primaryKey"`
	MemberAddress string    `gorm:"column:member_address;primaryKey"`
	AddedAt       time.Time `gorm:"column:added_at"`
}

func (daoMemberModel) TableName() string {
	return "dao_members"
}

func memberModelsFromEntity(dao entities.DAO) []daoMemberModel {
	rows := make([]daoMemberModel, 0, len(dao.Members))
	for _, member := range dao.Members {
		rows = append(rows, daoMemberModel{
			DAOID:         strings.TrimSpace(dao.DAOID),
			MemberAddress: strings.TrimSpace(member),
			AddedAt:       dao.CreatedAt.UTC(),
		})
	}
	return rows
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
	return "directory_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.DAORepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
