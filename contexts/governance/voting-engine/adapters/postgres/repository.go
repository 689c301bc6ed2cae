package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"

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

// InsertVote relies on the unique index over (proposal_id, voter_address);
// a duplicate ballot comes back as ErrAlreadyVoted regardless of which
// caller lost the race.
func (r *Repository) InsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("voting_repo_insert_vote_failed", err,
			"vote_id", vote.VoteID,
			"proposal_id", vote.ProposalID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("voting_repo_get_vote_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVoteByVoter(ctx context.Context, proposalID string, voterAddress string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Where("voter_address = ?", strings.TrimSpace(voterAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("voting_repo_get_ballot_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
			"voter_address", strings.TrimSpace(voterAddress),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByProposal(ctx context.Context, proposalID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_by_proposal_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	return voteEntities(rows), nil
}

func (r *Repository) ListVotesByDAO(ctx context.Context, daoID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("dao_id = ?", strings.TrimSpace(daoID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_by_dao_failed", err,
			"dao_id", strings.TrimSpace(daoID),
		)
	}
	return voteEntities(rows), nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID string) (ports.ProposalProjection, error) {
	var row proposalProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(proposalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProposalProjection{}, domainerrors.ErrProposalNotFound
		}
		return ports.ProposalProjection{}, r.logError("voting_repo_get_proposal_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	var options []string
	if row.VotingOptions != "" {
		if err := json.Unmarshal([]byte(row.VotingOptions), &options); err != nil {
			return ports.ProposalProjection{}, r.logError("voting_repo_decode_options_failed", err,
				"proposal_id", row.ID,
			)
		}
	}
	return ports.ProposalProjection{
		ProposalID:    row.ID,
		DAOID:         row.DAOID,
		Status:        row.Status,
		EndTime:       row.EndTime.UTC(),
		VotingOptions: options,
	}, nil
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
		return ports.DAOProjection{}, r.logError("voting_repo_get_dao_failed", err,
			"dao_id", strings.TrimSpace(daoID),
		)
	}
	return ports.DAOProjection{
		DAOID:         row.ID,
		TokenWeighted: row.TokenWeighted,
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
		return false, r.logError("voting_repo_is_member_failed", err,
			"dao_id", strings.TrimSpace(daoID),
			"member_address", strings.TrimSpace(address),
		)
	}
	return count > 0, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("voting_repo_append_outbox_marshal_failed", err,
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
		return r.logError("voting_repo_append_outbox_failed", create.Error, "outbox_id", row.OutboxID)
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
		return nil, r.logError("voting_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("voting_repo_mark_outbox_published_failed", result.Error,
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
		"module", "governance/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	ProposalID   string    `gorm:"column:proposal_id;uniqueIndex:idx_votes_ballot"`
	DAOID        string    `gorm:"column:dao_id;index"`
	VoterAddress string    `gorm:"column:voter_address;uniqueIndex:idx_votes_ballot"`
	Choice       string    `gorm:"column:choice"`
	Weight       int64     `gorm:"column:weight"`
	Comment      string    `gorm:"column:comment"`
	CastAt       time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:           strings.TrimSpace(vote.VoteID),
		ProposalID:   strings.TrimSpace(vote.ProposalID),
		DAOID:        strings.TrimSpace(vote.DAOID),
		VoterAddress: strings.TrimSpace(vote.VoterAddress),
		Choice:       strings.TrimSpace(vote.Choice),
		Weight:       vote.Weight,
		Comment:      strings.TrimSpace(vote.Comment),
		CastAt:       vote.CastAt.UTC(),
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:       m.ID,
		ProposalID:   m.ProposalID,
		DAOID:        m.DAOID,
		VoterAddress: m.VoterAddress,
		Choice:       m.Choice,
		Weight:       m.Weight,
		Comment:      m.Comment,
		CastAt:       m.CastAt.UTC(),
	}
}

func voteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type proposalProjectionModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	DAOID         string    `gorm:"column:dao_id"`
	Status        string    `gorm:"column:status"`
	VotingOptions string    `gorm:"column:voting_options"`
	EndTime       time.Time `gorm:"column:end_time"`
}

func (proposalProjectionModel) TableName() string {
	return "proposals"
}

type daoProjectionModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	TokenWeighted bool   `gorm:"column:token_weighted"`
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
	return "voting_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ProposalGateway = (*Repository)(nil)
var _ ports.DAOGateway = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
