package daodirectory_test

import (
	"context"
	"errors"
	"testing"

	daodirectory "agora/contexts/governance/dao-directory"
	domainerrors "agora/contexts/governance/dao-directory/domain/errors"
	httptransport "agora/contexts/governance/dao-directory/transport/http"
)

func TestCreateDAODefaultsAndNotification(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
		Name:         "Protocol Guild",
		Description:  "Core contributor treasury",
		OwnerAddress: "0xowner",
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       60,
			MinVotingPeriod: 24,
		},
	})
	if err != nil {
		t.Fatalf("create dao failed: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("expected default pending status, got %s", created.Status)
	}
	if len(created.DAOID) <= len("dao-") || created.DAOID[:4] != "dao-" {
		t.Fatalf("expected dao- prefixed id, got %s", created.DAOID)
	}
	if len(created.Members) != 1 || created.Members[0] != "0xowner" {
		t.Fatalf("expected owner-only membership, got %v", created.Members)
	}
	if got := module.Store.PendingOutboxCount(); got != 1 {
		t.Fatalf("expected 1 pending notification, got %d", got)
	}
}

func TestCreateDAORejectsInvalidRules(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	cases := []struct {
		name  string
		rules httptransport.VotingRulesPayload
	}{
		{name: "threshold too low", rules: httptransport.VotingRulesPayload{Threshold: 0, MinVotingPeriod: 24}},
		{name: "threshold too high", rules: httptransport.VotingRulesPayload{Threshold: 101, MinVotingPeriod: 24}},
		{name: "zero voting period", rules: httptransport.VotingRulesPayload{Threshold: 50, MinVotingPeriod: 0}},
	}
	for _, tc := range cases {
		_, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
			Name:         "Bad Rules DAO",
			Description:  "should not persist",
			OwnerAddress: "0xowner",
			VotingRules:  tc.rules,
		})
		if !errors.Is(err, domainerrors.ErrInvalidDAOInput) {
			t.Fatalf("%s: expected ErrInvalidDAOInput, got %v", tc.name, err)
		}
	}
	if got := module.Store.PendingOutboxCount(); got != 0 {
		t.Fatalf("expected no notifications after rejected creates, got %d", got)
	}
}

func TestCreateDAODedupesMembers(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
		Name:         "Dedupe DAO",
		Description:  "membership list cleanup",
		OwnerAddress: "0xowner",
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       51,
			MinVotingPeriod: 12,
		},
		Members: []string{"0xalice", "0xbob", "0xalice", " ", "0xbob"},
	})
	if err != nil {
		t.Fatalf("create dao failed: %v", err)
	}
	if len(created.Members) != 2 {
		t.Fatalf("expected 2 distinct members, got %v", created.Members)
	}
}

func TestMembershipAddRemoveIdempotence(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
		Name:         "Membership DAO",
		Description:  "add remove lifecycle",
		OwnerAddress: "0xowner",
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       66,
			MinVotingPeriod: 48,
		},
	})
	if err != nil {
		t.Fatalf("create dao failed: %v", err)
	}
	base := module.Store.PendingOutboxCount()

	dao, err := module.Handler.AddMemberHandler(context.Background(), created.DAOID, httptransport.MemberRequest{MemberAddress: "0xalice"})
	if err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if len(dao.Members) != 2 {
		t.Fatalf("expected 2 members after add, got %v", dao.Members)
	}
	if got := module.Store.PendingOutboxCount(); got != base+1 {
		t.Fatalf("expected one member_added notification, got %d", got-base)
	}

	dao, err = module.Handler.AddMemberHandler(context.Background(), created.DAOID, httptransport.MemberRequest{MemberAddress: "0xalice"})
	if err != nil {
		t.Fatalf("repeated add member failed: %v", err)
	}
	if len(dao.Members) != 2 {
		t.Fatalf("expected membership unchanged on replay, got %v", dao.Members)
	}
	if got := module.Store.PendingOutboxCount(); got != base+1 {
		t.Fatalf("expected no notification for no-op add, got %d", got-base)
	}

	dao, err = module.Handler.RemoveMemberHandler(context.Background(), created.DAOID, httptransport.MemberRequest{MemberAddress: "0xalice"})
	if err != nil {
		t.Fatalf("remove member failed: %v", err)
	}
	if len(dao.Members) != 1 {
		t.Fatalf("expected 1 member after remove, got %v", dao.Members)
	}
	if got := module.Store.PendingOutboxCount(); got != base+2 {
		t.Fatalf("expected one member_removed notification, got %d", got-base)
	}

	dao, err = module.Handler.RemoveMemberHandler(context.Background(), created.DAOID, httptransport.MemberRequest{MemberAddress: "0xstranger"})
	if err != nil {
		t.Fatalf("remove absent member should be a no-op, got %v", err)
	}
	if got := module.Store.PendingOutboxCount(); got != base+2 {
		t.Fatalf("expected no notification for no-op remove, got %d", got-base)
	}
	if len(dao.Members) != 1 {
		t.Fatalf("expected membership unchanged after no-op remove, got %v", dao.Members)
	}
}

func TestMembershipChecksAndProposalRefs(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
		Name:         "Reference DAO",
		Description:  "proposal index",
		OwnerAddress: "0xowner",
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       75,
			MinVotingPeriod: 24,
		},
	})
	if err != nil {
		t.Fatalf("create dao failed: %v", err)
	}

	check, err := module.Handler.IsMemberHandler(context.Background(), created.DAOID, "0xowner")
	if err != nil {
		t.Fatalf("is member failed: %v", err)
	}
	if !check.IsMember {
		t.Fatalf("expected owner to be a member")
	}
	check, err = module.Handler.IsMemberHandler(context.Background(), created.DAOID, "0xstranger")
	if err != nil {
		t.Fatalf("is member failed: %v", err)
	}
	if check.IsMember {
		t.Fatalf("expected stranger to not be a member")
	}
	if _, err := module.Handler.IsMemberHandler(context.Background(), "dao-missing", "0xowner"); !errors.Is(err, domainerrors.ErrDAONotFound) {
		t.Fatalf("expected ErrDAONotFound, got %v", err)
	}

	if err := module.Handler.Membership.AddProposalRef(context.Background(), created.DAOID, "prop-1"); err != nil {
		t.Fatalf("add proposal ref failed: %v", err)
	}
	if err := module.Handler.Membership.AddProposalRef(context.Background(), created.DAOID, "prop-1"); err != nil {
		t.Fatalf("replayed proposal ref failed: %v", err)
	}
	fetched, err := module.Handler.GetDAOHandler(context.Background(), created.DAOID)
	if err != nil {
		t.Fatalf("get dao failed: %v", err)
	}
	if len(fetched.Proposals) != 1 || fetched.Proposals[0] != "prop-1" {
		t.Fatalf("expected single proposal ref, got %v", fetched.Proposals)
	}
}

func TestUpdateDAOStatus(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
		Name:         "Status DAO",
		Description:  "activation flow",
		OwnerAddress: "0xowner",
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       50,
			MinVotingPeriod: 24,
		},
	})
	if err != nil {
		t.Fatalf("create dao failed: %v", err)
	}

	updated, err := module.Handler.UpdateStatusHandler(context.Background(), created.DAOID, httptransport.UpdateDAOStatusRequest{Status: "active"})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != "active" {
		t.Fatalf("expected active status, got %s", updated.Status)
	}

	if _, err := module.Handler.UpdateStatusHandler(context.Background(), created.DAOID, httptransport.UpdateDAOStatusRequest{Status: "archived"}); !errors.Is(err, domainerrors.ErrInvalidDAOStatus) {
		t.Fatalf("expected ErrInvalidDAOStatus, got %v", err)
	}
	if _, err := module.Handler.UpdateStatusHandler(context.Background(), "dao-missing", httptransport.UpdateDAOStatusRequest{Status: "inactive"}); !errors.Is(err, domainerrors.ErrDAONotFound) {
		t.Fatalf("expected ErrDAONotFound, got %v", err)
	}
}

func TestListDAOsFiltering(t *testing.T) {
	module := daodirectory.NewInMemoryModule(nil, nil)

	for _, owner := range []string{"0xalpha", "0xbeta"} {
		if _, err := module.Handler.CreateDAOHandler(context.Background(), httptransport.CreateDAORequest{
			Name:         "DAO " + owner,
			Description:  "listing fixture",
			OwnerAddress: owner,
			VotingRules: httptransport.VotingRulesPayload{
				Threshold:       50,
				MinVotingPeriod: 24,
			},
		}); err != nil {
			t.Fatalf("create dao failed: %v", err)
		}
	}

	all, err := module.Handler.ListDAOsHandler(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list daos failed: %v", err)
	}
	if len(all.Items) != 2 {
		t.Fatalf("expected 2 daos, got %d", len(all.Items))
	}

	filtered, err := module.Handler.ListDAOsHandler(context.Background(), "0xalpha", "")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Items[0].OwnerAddress != "0xalpha" {
		t.Fatalf("expected only 0xalpha dao, got %v", filtered.Items)
	}

	empty, err := module.Handler.ListDAOsHandler(context.Background(), "", "active")
	if err != nil {
		t.Fatalf("status filtered list failed: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected no active daos, got %d", len(empty.Items))
	}
}
