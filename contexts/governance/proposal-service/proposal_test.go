package proposalservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	proposalservice "agora/contexts/governance/proposal-service"
	"agora/contexts/governance/proposal-service/domain/entities"
	domainerrors "agora/contexts/governance/proposal-service/domain/errors"
	"agora/contexts/governance/proposal-service/ports"
	httptransport "agora/contexts/governance/proposal-service/transport/http"
)

func seedDAO(module proposalservice.Module, daoID string, minHours int, threshold int) {
	module.Store.SetDAO(ports.DAOProjection{
		DAOID:                daoID,
		Status:               "active",
		ThresholdPercent:     threshold,
		MinVotingPeriodHours: minHours,
	})
	module.Store.SetMember(daoID, "0xcreator")
}

func TestCreateProposalDefaults(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)

	end := time.Now().UTC().Add(48 * time.Hour)
	created, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Fund audit",
		Description:    "Commission a security audit",
		CreatorAddress: "0xcreator",
		EndTime:        end.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	if created.Status != "active" {
		t.Fatalf("expected active status, got %s", created.Status)
	}
	if len(created.ProposalID) <= len("prop-") || created.ProposalID[:5] != "prop-" {
		t.Fatalf("expected prop- prefixed id, got %s", created.ProposalID)
	}
	if len(created.VotingOptions) != 3 || created.VotingOptions[0] != "YES" || created.VotingOptions[1] != "NO" || created.VotingOptions[2] != "ABSTAIN" {
		t.Fatalf("expected default options, got %v", created.VotingOptions)
	}
	refs := module.Store.ProposalRefs("dao-1")
	if len(refs) != 1 || refs[0] != created.ProposalID {
		t.Fatalf("expected proposal ref registered, got %v", refs)
	}
	types := module.Store.PendingOutboxTypes()
	if len(types) != 1 || types[0] != "proposal.created" {
		t.Fatalf("expected proposal.created notification, got %v", types)
	}
}

func TestCreateProposalAdmissionChecks(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)
	end := time.Now().UTC().Add(48 * time.Hour)

	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-missing",
		Title:          "Orphan",
		Description:    "no dao",
		CreatorAddress: "0xcreator",
		EndTime:        end.Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrDAONotFound) {
		t.Fatalf("expected ErrDAONotFound, got %v", err)
	}

	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Outsider",
		Description:    "from non member",
		CreatorAddress: "0xstranger",
		EndTime:        end.Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrCreatorNotMember) {
		t.Fatalf("expected ErrCreatorNotMember, got %v", err)
	}

	short := time.Now().UTC().Add(12 * time.Hour)
	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Too short",
		Description:    "half day window",
		CreatorAddress: "0xcreator",
		EndTime:        short.Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrVotingPeriodTooShort) {
		t.Fatalf("expected ErrVotingPeriodTooShort, got %v", err)
	}

	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Too many options",
		Description:    "six choices",
		CreatorAddress: "0xcreator",
		VotingOptions:  []string{"A", "B", "C", "D", "E", "F"},
		EndTime:        end.Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrTooManyVotingOptions) {
		t.Fatalf("expected ErrTooManyVotingOptions, got %v", err)
	}

	created, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Five options",
		Description:    "upper bound",
		CreatorAddress: "0xcreator",
		VotingOptions:  []string{"A", "B", "C", "D", "E"},
		EndTime:        end.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("five options should be accepted: %v", err)
	}
	if len(created.VotingOptions) != 5 {
		t.Fatalf("expected 5 options, got %v", created.VotingOptions)
	}

	start := time.Now().UTC().Add(time.Hour)
	exact, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Exact minimum",
		Description:    "window equals the dao minimum",
		CreatorAddress: "0xcreator",
		StartTime:      start.Format(time.RFC3339),
		EndTime:        start.Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("a window equal to the minimum voting period should be accepted: %v", err)
	}
	if exact.Status != "active" {
		t.Fatalf("expected active, got %s", exact.Status)
	}

	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Just under minimum",
		Description:    "one second short",
		CreatorAddress: "0xcreator",
		StartTime:      start.Format(time.RFC3339),
		EndTime:        start.Add(24*time.Hour - time.Second).Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrVotingPeriodTooShort) {
		t.Fatalf("expected ErrVotingPeriodTooShort, got %v", err)
	}

	if _, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Inverted window",
		Description:    "end before start",
		CreatorAddress: "0xcreator",
		StartTime:      end.Format(time.RFC3339),
		EndTime:        time.Now().UTC().Format(time.RFC3339),
	}); !errors.Is(err, domainerrors.ErrInvalidProposalInput) {
		t.Fatalf("expected ErrInvalidProposalInput, got %v", err)
	}
}

func TestUpdateProposalStatusTransitions(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)
	end := time.Now().UTC().Add(48 * time.Hour)
	created, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Lifecycle",
		Description:    "transition checks",
		CreatorAddress: "0xcreator",
		EndTime:        end.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}

	if _, err := module.Handler.UpdateStatusHandler(context.Background(), created.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "archived"}); !errors.Is(err, domainerrors.ErrInvalidProposalStatus) {
		t.Fatalf("expected ErrInvalidProposalStatus, got %v", err)
	}
	if _, err := module.Handler.UpdateStatusHandler(context.Background(), created.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "pending"}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for active->pending, got %v", err)
	}

	passed, err := module.Handler.UpdateStatusHandler(context.Background(), created.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "passed"})
	if err != nil {
		t.Fatalf("active->passed failed: %v", err)
	}
	if passed.Status != "passed" {
		t.Fatalf("expected passed, got %s", passed.Status)
	}
	executed, err := module.Handler.UpdateStatusHandler(context.Background(), created.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "executed"})
	if err != nil {
		t.Fatalf("passed->executed failed: %v", err)
	}
	if executed.Status != "executed" {
		t.Fatalf("expected executed, got %s", executed.Status)
	}
	if _, err := module.Handler.UpdateStatusHandler(context.Background(), created.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "active"}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected terminal proposal to reject transitions, got %v", err)
	}

	direct, err := module.Handler.CreateProposalHandler(context.Background(), httptransport.CreateProposalRequest{
		DAOID:          "dao-1",
		Title:          "Direct execution",
		Description:    "skips settlement",
		CreatorAddress: "0xcreator",
		EndTime:        end.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	resp, err := module.Handler.UpdateStatusHandler(context.Background(), direct.ProposalID, httptransport.UpdateProposalStatusRequest{Status: "executed"})
	if err != nil {
		t.Fatalf("active->executed failed: %v", err)
	}
	if resp.Status != "executed" {
		t.Fatalf("expected executed, got %s", resp.Status)
	}
}

func TestSettleProposalOutcomes(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)
	now := time.Now().UTC()

	closed := entities.Proposal{
		ProposalID:     "prop-closed",
		DAOID:          "dao-1",
		Title:          "Closed vote",
		Description:    "window over",
		CreatorAddress: "0xcreator",
		Status:         entities.ProposalStatusActive,
		VotingOptions:  entities.DefaultVotingOptions(),
		StartTime:      now.Add(-72 * time.Hour),
		EndTime:        now.Add(-time.Hour),
		CreatedAt:      now.Add(-72 * time.Hour),
		UpdatedAt:      now.Add(-72 * time.Hour),
	}
	if err := module.Store.CreateProposal(context.Background(), closed); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	module.Store.SetTally("prop-closed", map[string]int64{"YES": 3, "NO": 1})

	settled, err := module.Handler.SettleProposalHandler(context.Background(), "prop-closed")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if settled.Proposal.Status != "passed" {
		t.Fatalf("expected passed with 75%% yes against 50%% threshold, got %s", settled.Proposal.Status)
	}
	if settled.TotalWeight != 4 || settled.YesWeight != 3 {
		t.Fatalf("unexpected tally summary: total=%d yes=%d", settled.TotalWeight, settled.YesWeight)
	}

	if _, err := module.Handler.SettleProposalHandler(context.Background(), "prop-closed"); !errors.Is(err, domainerrors.ErrProposalNotSettleable) {
		t.Fatalf("expected settled proposal to reject resettlement, got %v", err)
	}

	rejected := closed
	rejected.ProposalID = "prop-rejected"
	if err := module.Store.CreateProposal(context.Background(), rejected); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	module.Store.SetTally("prop-rejected", map[string]int64{"YES": 1, "NO": 3})
	result, err := module.Handler.SettleProposalHandler(context.Background(), "prop-rejected")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Proposal.Status != "rejected" {
		t.Fatalf("expected rejected with 25%% yes, got %s", result.Proposal.Status)
	}

	unvoted := closed
	unvoted.ProposalID = "prop-unvoted"
	if err := module.Store.CreateProposal(context.Background(), unvoted); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	result, err = module.Handler.SettleProposalHandler(context.Background(), "prop-unvoted")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.Proposal.Status != "rejected" {
		t.Fatalf("expected zero-vote proposal to reject, got %s", result.Proposal.Status)
	}

	open := closed
	open.ProposalID = "prop-open"
	open.EndTime = now.Add(48 * time.Hour)
	if err := module.Store.CreateProposal(context.Background(), open); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	if _, err := module.Handler.SettleProposalHandler(context.Background(), "prop-open"); !errors.Is(err, domainerrors.ErrProposalNotSettleable) {
		t.Fatalf("expected open proposal to reject settlement, got %v", err)
	}
}

func TestSettleProposalAfterExpirationSweep(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)
	now := time.Now().UTC()

	stale := entities.Proposal{
		ProposalID:     "prop-swept",
		DAOID:          "dao-1",
		Title:          "Swept before settlement",
		Description:    "the sweeper runs on a shorter interval than the operator",
		CreatorAddress: "0xcreator",
		Status:         entities.ProposalStatusActive,
		VotingOptions:  entities.DefaultVotingOptions(),
		StartTime:      now.Add(-72 * time.Hour),
		EndTime:        now.Add(-time.Hour),
		CreatedAt:      now.Add(-72 * time.Hour),
		UpdatedAt:      now.Add(-72 * time.Hour),
	}
	if err := module.Store.CreateProposal(context.Background(), stale); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}
	module.Store.SetTally("prop-swept", map[string]int64{"YES": 3, "NO": 1})

	if err := module.Sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	swept, err := module.Handler.GetProposalHandler(context.Background(), "prop-swept")
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if swept.Status != "expired" {
		t.Fatalf("expected sweep to expire the proposal, got %s", swept.Status)
	}

	settled, err := module.Handler.SettleProposalHandler(context.Background(), "prop-swept")
	if err != nil {
		t.Fatalf("settle after sweep failed: %v", err)
	}
	if settled.Proposal.Status != "passed" {
		t.Fatalf("expected passed with 75%% yes against 50%% threshold, got %s", settled.Proposal.Status)
	}

	if _, err := module.Handler.SettleProposalHandler(context.Background(), "prop-swept"); !errors.Is(err, domainerrors.ErrProposalNotSettleable) {
		t.Fatalf("expected settled proposal to reject resettlement, got %v", err)
	}
}

func TestListActiveFiltersClosedWindows(t *testing.T) {
	module := proposalservice.NewInMemoryModule(nil, nil)
	seedDAO(module, "dao-1", 24, 50)
	now := time.Now().UTC()

	open := entities.Proposal{
		ProposalID:    "prop-open",
		DAOID:         "dao-1",
		Status:        entities.ProposalStatusActive,
		VotingOptions: entities.DefaultVotingOptions(),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(48 * time.Hour),
		CreatedAt:     now.Add(-time.Hour),
	}
	stale := open
	stale.ProposalID = "prop-stale"
	stale.EndTime = now.Add(-time.Hour)
	for _, proposal := range []entities.Proposal{open, stale} {
		if err := module.Store.CreateProposal(context.Background(), proposal); err != nil {
			t.Fatalf("seed proposal failed: %v", err)
		}
	}

	active, err := module.Handler.ListActiveProposalsHandler(context.Background(), "dao-1")
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active.Items) != 1 || active.Items[0].ProposalID != "prop-open" {
		t.Fatalf("expected only the open proposal, got %v", active.Items)
	}
}
