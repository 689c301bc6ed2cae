package votingengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	votingengine "agora/contexts/governance/voting-engine"
	"agora/contexts/governance/voting-engine/application/commands"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"
	httptransport "agora/contexts/governance/voting-engine/transport/http"
)

func seedGovernance(module votingengine.Module, tokenWeighted bool) {
	module.Store.SetDAO(ports.DAOProjection{
		DAOID:         "dao-1",
		TokenWeighted: tokenWeighted,
	})
	for _, member := range []string{"0xalice", "0xbob", "0xcarol", "0xdave"} {
		module.Store.SetMember("dao-1", member)
	}
	module.Store.SetProposal(ports.ProposalProjection{
		ProposalID:    "prop-1",
		DAOID:         "dao-1",
		Status:        "active",
		EndTime:       time.Now().UTC().Add(24 * time.Hour),
		VotingOptions: []string{"YES", "NO", "ABSTAIN"},
	})
}

func TestCastVotesAndTally(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	seedGovernance(module, false)

	ballots := []struct {
		voter  string
		choice string
	}{
		{voter: "0xalice", choice: "YES"},
		{voter: "0xbob", choice: "YES"},
		{voter: "0xcarol", choice: "YES"},
		{voter: "0xdave", choice: "NO"},
	}
	for _, ballot := range ballots {
		vote, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
			ProposalID:   "prop-1",
			VoterAddress: ballot.voter,
			Choice:       ballot.choice,
		})
		if err != nil {
			t.Fatalf("cast vote for %s failed: %v", ballot.voter, err)
		}
		if vote.Weight != 1 {
			t.Fatalf("expected default weight 1, got %d", vote.Weight)
		}
	}

	tally, err := module.Handler.TallyHandler(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.Totals["YES"] != 3 || tally.Totals["NO"] != 1 || tally.Totals["ABSTAIN"] != 0 {
		t.Fatalf("unexpected tally: %v", tally.Totals)
	}
	if got, ok := tally.Totals["ABSTAIN"]; !ok || got != 0 {
		t.Fatalf("expected ABSTAIN zero-initialized, got %v present=%v", got, ok)
	}
	if tally.VoteCount != 4 {
		t.Fatalf("expected 4 votes, got %d", tally.VoteCount)
	}
	if got := module.Store.PendingOutboxCount(); got != 4 {
		t.Fatalf("expected 4 vote notifications, got %d", got)
	}
}

func TestCastVoteRejectsDuplicates(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	seedGovernance(module, false)

	first, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "YES",
		Comment:      "ship it",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if first.Comment != "ship it" {
		t.Fatalf("expected comment to round-trip, got %q", first.Comment)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "NO",
	}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	// The original ballot is untouched.
	kept, err := module.Handler.FindVoterVoteHandler(context.Background(), "prop-1", "0xalice")
	if err != nil {
		t.Fatalf("find voter vote failed: %v", err)
	}
	if kept.VoteID != first.VoteID || kept.Choice != "YES" {
		t.Fatalf("expected first ballot preserved, got %+v", kept)
	}
}

func TestCastVoteEligibilityOrder(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	seedGovernance(module, false)

	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-missing",
		VoterAddress: "0xstranger",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound first, got %v", err)
	}

	module.Store.SetProposal(ports.ProposalProjection{
		ProposalID:    "prop-settled",
		DAOID:         "dao-1",
		Status:        "passed",
		EndTime:       time.Now().UTC().Add(24 * time.Hour),
		VotingOptions: []string{"YES", "NO"},
	})
	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-settled",
		VoterAddress: "0xstranger",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrProposalNotActive) {
		t.Fatalf("expected ErrProposalNotActive before membership, got %v", err)
	}

	module.Store.SetProposal(ports.ProposalProjection{
		ProposalID:    "prop-closed",
		DAOID:         "dao-1",
		Status:        "active",
		EndTime:       time.Now().UTC().Add(-time.Hour),
		VotingOptions: []string{"YES", "NO"},
	})
	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-closed",
		VoterAddress: "0xstranger",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrVotingWindowClosed) {
		t.Fatalf("expected ErrVotingWindowClosed before membership, got %v", err)
	}

	module.Store.SetProposal(ports.ProposalProjection{
		ProposalID:    "prop-orphan",
		DAOID:         "dao-missing",
		Status:        "active",
		EndTime:       time.Now().UTC().Add(24 * time.Hour),
		VotingOptions: []string{"YES", "NO"},
	})
	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-orphan",
		VoterAddress: "0xstranger",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrDAONotFound) {
		t.Fatalf("expected ErrDAONotFound before membership, got %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xstranger",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrVoterNotMember) {
		t.Fatalf("expected ErrVoterNotMember before choice, got %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "BOGUS",
	}); !errors.Is(err, domainerrors.ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice last, got %v", err)
	}
}

func TestTokenWeightedVotes(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	seedGovernance(module, true)
	module.Store.SetTokenBalance("dao-1", "0xalice", 5)

	weighted, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "YES",
	})
	if err != nil {
		t.Fatalf("cast weighted vote failed: %v", err)
	}
	if weighted.Weight != 5 {
		t.Fatalf("expected weight 5 from token balance, got %d", weighted.Weight)
	}

	// A member without a recorded balance still counts as weight 1.
	unweighted, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xbob",
		Choice:       "NO",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if unweighted.Weight != 1 {
		t.Fatalf("expected fallback weight 1, got %d", unweighted.Weight)
	}

	tally, err := module.Handler.TallyHandler(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.Totals["YES"] != 5 || tally.Totals["NO"] != 1 {
		t.Fatalf("unexpected weighted tally: %v", tally.Totals)
	}
}

func TestVoteLookups(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	seedGovernance(module, false)

	cast, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "ABSTAIN",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	got, err := module.Handler.GetVoteHandler(context.Background(), cast.VoteID)
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if got.Choice != "ABSTAIN" {
		t.Fatalf("unexpected vote: %+v", got)
	}
	if _, err := module.Handler.GetVoteHandler(context.Background(), "vote-missing"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
	if _, err := module.Handler.FindVoterVoteHandler(context.Background(), "prop-1", "0xbob"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound for non-voter, got %v", err)
	}

	byDAO, err := module.Handler.ListDAOVotesHandler(context.Background(), "dao-1")
	if err != nil {
		t.Fatalf("list dao votes failed: %v", err)
	}
	if len(byDAO.Items) != 1 {
		t.Fatalf("expected 1 dao vote, got %d", len(byDAO.Items))
	}
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

func TestCastVoteAtWindowEndInstant(t *testing.T) {
	module := votingengine.NewInMemoryModule(nil, nil)
	end := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	module.Store.SetDAO(ports.DAOProjection{DAOID: "dao-1"})
	module.Store.SetMember("dao-1", "0xalice")
	module.Store.SetMember("dao-1", "0xbob")
	module.Store.SetProposal(ports.ProposalProjection{
		ProposalID:    "prop-1",
		DAOID:         "dao-1",
		Status:        "active",
		EndTime:       end,
		VotingOptions: []string{"YES", "NO"},
	})

	uc := commands.CastVoteUseCase{
		Votes:     module.Store,
		Proposals: module.Store,
		Directory: module.Store,
		Outbox:    module.Store,
		Clock:     fixedClock{at: end},
		IDGen:     module.Store,
	}
	vote, err := uc.Execute(context.Background(), commands.CastVoteCommand{
		ProposalID:   "prop-1",
		VoterAddress: "0xalice",
		Choice:       "YES",
	})
	if err != nil {
		t.Fatalf("vote at the end instant should count: %v", err)
	}
	if vote.Choice != "YES" {
		t.Fatalf("unexpected vote: %+v", vote)
	}

	late := uc
	late.Clock = fixedClock{at: end.Add(time.Second)}
	if _, err := late.Execute(context.Background(), commands.CastVoteCommand{
		ProposalID:   "prop-1",
		VoterAddress: "0xbob",
		Choice:       "NO",
	}); !errors.Is(err, domainerrors.ErrVotingWindowClosed) {
		t.Fatalf("expected ErrVotingWindowClosed past the end instant, got %v", err)
	}
}
