package entities

import (
	"encoding/json"
	"strings"
	"time"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusActive   ProposalStatus = "active"
	ProposalStatusPassed   ProposalStatus = "passed"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
	ProposalStatusExecuted ProposalStatus = "executed"
)

const MaxVotingOptions = 5

// DefaultVotingOptions is applied when a proposal is created without an
// explicit option list.
func DefaultVotingOptions() []string {
	return []string{"YES", "NO", "ABSTAIN"}
}

type Proposal struct {
	ProposalID     string
	DAOID          string
	Title          string
	Description    string
	CreatorAddress string
	Status         ProposalStatus
	VotingOptions  []string
	StartTime      time.Time
	EndTime        time.Time
	// ProposalData is carried opaque; the engine never interprets it.
	ProposalData json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Proposal) HasOption(choice string) bool {
	for _, option := range p.VotingOptions {
		if option == choice {
			return true
		}
	}
	return false
}

func IsSupportedProposalStatus(value ProposalStatus) bool {
	switch value {
	case ProposalStatusPending, ProposalStatusActive, ProposalStatusPassed,
		ProposalStatusRejected, ProposalStatusExpired, ProposalStatusExecuted:
		return true
	default:
		return false
	}
}

// IsTerminalProposalStatus reports whether a proposal can leave the status.
// Terminal proposals never transition again.
func IsTerminalProposalStatus(value ProposalStatus) bool {
	switch value {
	case ProposalStatusRejected, ProposalStatusExecuted:
		return true
	default:
		return false
	}
}

// IsAllowedTransition encodes the proposal lifecycle. An expired proposal can
// still be decided by settlement, so expired admits the two outcome statuses.
func IsAllowedTransition(from ProposalStatus, to ProposalStatus) bool {
	switch from {
	case ProposalStatusPending:
		return to == ProposalStatusActive
	case ProposalStatusActive:
		return to == ProposalStatusPassed ||
			to == ProposalStatusRejected ||
			to == ProposalStatusExpired ||
			to == ProposalStatusExecuted
	case ProposalStatusPassed:
		return to == ProposalStatusExecuted
	case ProposalStatusExpired:
		return to == ProposalStatusPassed ||
			to == ProposalStatusRejected
	default:
		return false
	}
}

// NormalizeVotingOptions trims and dedupes the option list, keeping first
// occurrence order.
func NormalizeVotingOptions(options []string) []string {
	seen := make(map[string]struct{}, len(options))
	out := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if _, ok := seen[option]; ok {
			continue
		}
		seen[option] = struct{}{}
		out = append(out, option)
	}
	return out
}
