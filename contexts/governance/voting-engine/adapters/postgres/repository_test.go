package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&voteModel{},
		&proposalProjectionModel{},
		&daoProjectionModel{},
		&daoMemberProjectionModel{},
		&outboxModel{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestRepositoryVoteRoundTrip(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	now := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	vote := entities.Vote{
		VoteID:       "vote-1",
		ProposalID:   "prop-1",
		DAOID:        "dao-1",
		VoterAddress: "0xalice",
		Choice:       "YES",
		Weight:       3,
		CastAt:       now,
	}
	if err := repo.InsertVote(context.Background(), vote); err != nil {
		t.Fatalf("insert vote failed: %v", err)
	}

	got, err := repo.GetVote(context.Background(), "vote-1")
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if got.Choice != "YES" || got.Weight != 3 {
		t.Fatalf("unexpected vote row: %+v", got)
	}

	ballot, found, err := repo.GetVoteByVoter(context.Background(), "prop-1", "0xalice")
	if err != nil {
		t.Fatalf("get ballot failed: %v", err)
	}
	if !found || ballot.VoteID != "vote-1" {
		t.Fatalf("expected ballot lookup hit, got found=%v vote=%+v", found, ballot)
	}
	if _, found, err := repo.GetVoteByVoter(context.Background(), "prop-1", "0xbob"); err != nil || found {
		t.Fatalf("expected ballot lookup miss, got found=%v err=%v", found, err)
	}

	duplicate := vote
	duplicate.VoteID = "vote-2"
	if err := repo.InsertVote(context.Background(), duplicate); err == nil {
		t.Fatalf("expected duplicate ballot insert to fail")
	}

	second := entities.Vote{
		VoteID:       "vote-3",
		ProposalID:   "prop-1",
		DAOID:        "dao-1",
		VoterAddress: "0xbob",
		Choice:       "NO",
		Weight:       1,
		CastAt:       now.Add(time.Minute),
	}
	if err := repo.InsertVote(context.Background(), second); err != nil {
		t.Fatalf("insert second vote failed: %v", err)
	}
	byProposal, err := repo.ListVotesByProposal(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("list by proposal failed: %v", err)
	}
	if len(byProposal) != 2 || byProposal[0].VoteID != "vote-1" {
		t.Fatalf("unexpected proposal votes: %+v", byProposal)
	}
	byDAO, err := repo.ListVotesByDAO(context.Background(), "dao-1")
	if err != nil {
		t.Fatalf("list by dao failed: %v", err)
	}
	if len(byDAO) != 2 {
		t.Fatalf("expected 2 dao votes, got %d", len(byDAO))
	}

	if _, err := repo.GetVote(context.Background(), "vote-missing"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
}

func TestRepositoryProjectionReads(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	end := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	options, _ := json.Marshal([]string{"YES", "NO", "ABSTAIN"})
	if err := db.Create(&proposalProjectionModel{
		ID:            "prop-1",
		DAOID:         "dao-1",
		Status:        "active",
		VotingOptions: string(options),
		EndTime:       end,
	}).Error; err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	if err := db.Create(&daoProjectionModel{ID: "dao-1", TokenWeighted: true}).Error; err != nil {
		t.Fatalf("seed dao failed: %v", err)
	}
	if err := db.Create(&daoMemberProjectionModel{DAOID: "dao-1", MemberAddress: "0xalice"}).Error; err != nil {
		t.Fatalf("seed member failed: %v", err)
	}

	proposal, err := repo.GetProposal(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if proposal.DAOID != "dao-1" || len(proposal.VotingOptions) != 3 {
		t.Fatalf("unexpected proposal projection: %+v", proposal)
	}
	if !proposal.EndTime.Equal(end) {
		t.Fatalf("unexpected end time: %v", proposal.EndTime)
	}
	if _, err := repo.GetProposal(context.Background(), "prop-missing"); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}

	dao, err := repo.GetDAO(context.Background(), "dao-1")
	if err != nil {
		t.Fatalf("get dao failed: %v", err)
	}
	if !dao.TokenWeighted {
		t.Fatalf("expected token weighted dao")
	}
	member, err := repo.IsMember(context.Background(), "dao-1", "0xalice")
	if err != nil {
		t.Fatalf("is member failed: %v", err)
	}
	if !member {
		t.Fatalf("expected 0xalice to be a member")
	}
	if _, err := repo.IsMember(context.Background(), "dao-missing", "0xalice"); !errors.Is(err, domainerrors.ErrDAONotFound) {
		t.Fatalf("expected ErrDAONotFound, got %v", err)
	}
}

func TestRepositoryOutboxLifecycle(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	now := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	envelope := ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     "vote.cast",
		OccurredAt:    now,
		SourceService: "voting-engine",
		SchemaVersion: 1,
		PartitionKey:  "prop-1",
		Data:          []byte(`{"vote_id":"vote-1"}`),
	}
	if err := repo.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	// Replaying the same event id is a silent no-op.
	if err := repo.AppendOutbox(context.Background(), envelope); err != nil {
		t.Fatalf("replay append failed: %v", err)
	}

	pending, err := repo.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}
	var decoded ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &decoded); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if decoded.EventType != "vote.cast" || decoded.PartitionKey != "prop-1" {
		t.Fatalf("unexpected payload envelope: %+v", decoded)
	}

	if err := repo.MarkOutboxPublished(context.Background(), "evt-1", now.Add(time.Second)); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = repo.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %d", len(pending))
	}
	if err := repo.MarkOutboxPublished(context.Background(), "evt-missing", now); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
