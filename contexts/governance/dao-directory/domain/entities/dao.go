package entities

import (
	"strings"
	"time"
)

type DAOStatus string

const (
	DAOStatusPending  DAOStatus = "pending"
	DAOStatusActive   DAOStatus = "active"
	DAOStatusInactive DAOStatus = "inactive"
)

// VotingRules configure how proposals against a DAO are created and settled.
type VotingRules struct {
	ThresholdPercent     int
	MinVotingPeriodHours int
	TokenWeighted        bool
}

type DAO struct {
	DAOID        string
	Name         string
	Description  string
	OwnerAddress string
	Status       DAOStatus
	VotingRules  VotingRules
	Members      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d DAO) HasMember(address string) bool {
	address = strings.TrimSpace(address)
	for _, member := range d.Members {
		if member == address {
			return true
		}
	}
	return false
}

func (r VotingRules) Valid() bool {
	return r.ThresholdPercent >= 1 &&
		r.ThresholdPercent <= 100 &&
		r.MinVotingPeriodHours > 0
}

func IsSupportedDAOStatus(value DAOStatus) bool {
	switch value {
	case DAOStatusPending, DAOStatusActive, DAOStatusInactive:
		return true
	default:
		return false
	}
}

// DedupeMembers keeps first occurrence order while dropping repeated and
// blank addresses.
func DedupeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, member := range members {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		out = append(out, member)
	}
	return out
}
