package workers_test

import (
	"context"
	"testing"
	"time"

	"agora/contexts/governance/proposal-service/adapters/memory"
	"agora/contexts/governance/proposal-service/application/workers"
	"agora/contexts/governance/proposal-service/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func TestExpirationSweeperFlipsClosedProposals(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore([]entities.Proposal{
		{
			ProposalID:    "prop-stale",
			DAOID:         "dao-1",
			Status:        entities.ProposalStatusActive,
			VotingOptions: entities.DefaultVotingOptions(),
			StartTime:     now.Add(-48 * time.Hour),
			EndTime:       now.Add(-time.Hour),
			CreatedAt:     now.Add(-48 * time.Hour),
		},
		{
			ProposalID:    "prop-open",
			DAOID:         "dao-1",
			Status:        entities.ProposalStatusActive,
			VotingOptions: entities.DefaultVotingOptions(),
			StartTime:     now.Add(-time.Hour),
			EndTime:       now.Add(24 * time.Hour),
			CreatedAt:     now.Add(-time.Hour),
		},
		{
			ProposalID:    "prop-settled",
			DAOID:         "dao-1",
			Status:        entities.ProposalStatusPassed,
			VotingOptions: entities.DefaultVotingOptions(),
			StartTime:     now.Add(-96 * time.Hour),
			EndTime:       now.Add(-48 * time.Hour),
			CreatedAt:     now.Add(-96 * time.Hour),
		},
	})

	sweeper := workers.ExpirationSweeper{
		Proposals: store,
		Outbox:    store,
		Clock:     fixedClock{now: now},
		IDGen:     store,
	}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	stale, err := store.GetProposal(context.Background(), "prop-stale")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if stale.Status != entities.ProposalStatusExpired {
		t.Fatalf("expected stale proposal expired, got %s", stale.Status)
	}
	open, err := store.GetProposal(context.Background(), "prop-open")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if open.Status != entities.ProposalStatusActive {
		t.Fatalf("expected open proposal untouched, got %s", open.Status)
	}
	settled, err := store.GetProposal(context.Background(), "prop-settled")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if settled.Status != entities.ProposalStatusPassed {
		t.Fatalf("expected settled proposal untouched, got %s", settled.Status)
	}
	types := store.PendingOutboxTypes()
	if len(types) != 1 || types[0] != "proposal.expired" {
		t.Fatalf("expected one proposal.expired notification, got %v", types)
	}

	// A second sweep over the same rows is a no-op.
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("repeat sweep failed: %v", err)
	}
	if got := len(store.PendingOutboxTypes()); got != 1 {
		t.Fatalf("expected no duplicate notifications, got %d", got)
	}
}
