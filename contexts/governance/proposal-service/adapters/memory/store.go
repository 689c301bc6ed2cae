package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/proposal-service/domain/entities"
	domainerrors "agora/contexts/governance/proposal-service/domain/errors"
	"agora/contexts/governance/proposal-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	proposals    map[string]entities.Proposal
	daos         map[string]ports.DAOProjection
	members      map[string]map[string]struct{}
	proposalRefs map[string][]string
	tallies      map[string]map[string]int64
	outbox       map[string]outboxRecord
}

func NewStore(seed []entities.Proposal) *Store {
	proposals := make(map[string]entities.Proposal, len(seed))
	for _, proposal := range seed {
		proposals[proposal.ProposalID] = proposal
	}
	return &Store{
		proposals:    proposals,
		daos:         make(map[string]ports.DAOProjection),
		members:      make(map[string]map[string]struct{}),
		proposalRefs: make(map[string][]string),
		tallies:      make(map[string]map[string]int64),
		outbox:       make(map[string]outboxRecord),
	}
}

// SetDAO seeds the directory projection this module reads during admission.
func (s *Store) SetDAO(dao ports.DAOProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daos[dao.DAOID] = dao
	if _, ok := s.members[dao.DAOID]; !ok {
		s.members[dao.DAOID] = make(map[string]struct{})
	}
}

// SetMember seeds DAO membership for admission checks.
func (s *Store) SetMember(daoID string, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[daoID]; !ok {
		s.members[daoID] = make(map[string]struct{})
	}
	s.members[daoID][address] = struct{}{}
}

// SetTally seeds the vote totals the settlement path consumes.
func (s *Store) SetTally(proposalID string, tally map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]int64, len(tally))
	for choice, weight := range tally {
		copied[choice] = weight
	}
	s.tallies[proposalID] = copied
}

func (s *Store) CreateProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.proposals[proposal.ProposalID]; exists {
		return domainerrors.ErrConflict
	}
	s.proposals[proposal.ProposalID] = proposal
	return nil
}

func (s *Store) GetProposal(_ context.Context, proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
}

func (s *Store) ListProposals(_ context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		if filter.DAOID != "" && proposal.DAOID != strings.TrimSpace(filter.DAOID) {
			continue
		}
		if filter.CreatorAddress != "" && proposal.CreatorAddress != strings.TrimSpace(filter.CreatorAddress) {
			continue
		}
		if filter.Status != "" && proposal.Status != filter.Status {
			continue
		}
		items = append(items, proposal)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateProposalStatus(_ context.Context, proposalID string, status entities.ProposalStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	proposal.Status = status
	proposal.UpdatedAt = updatedAt.UTC()
	s.proposals[proposal.ProposalID] = proposal
	return nil
}

func (s *Store) ExpireProposalsPastEndTime(_ context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	timestamp := now.UTC()
	candidates := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.Status != entities.ProposalStatusActive {
			continue
		}
		if !proposal.EndTime.Before(timestamp) {
			continue
		}
		candidates = append(candidates, proposal)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EndTime.Before(candidates[j].EndTime)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	expired := make([]entities.Proposal, 0, len(candidates))
	for _, proposal := range candidates {
		proposal.Status = entities.ProposalStatusExpired
		proposal.UpdatedAt = timestamp
		s.proposals[proposal.ProposalID] = proposal
		expired = append(expired, proposal)
	}
	return expired, nil
}

func (s *Store) GetDAO(_ context.Context, daoID string) (ports.DAOProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dao, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return ports.DAOProjection{}, domainerrors.ErrDAONotFound
	}
	return dao, nil
}

func (s *Store) IsMember(_ context.Context, daoID string, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.members[strings.TrimSpace(daoID)]
	if !ok {
		return false, domainerrors.ErrDAONotFound
	}
	_, exists := members[strings.TrimSpace(address)]
	return exists, nil
}

func (s *Store) AddProposalRef(_ context.Context, daoID string, proposalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	daoID = strings.TrimSpace(daoID)
	proposalID = strings.TrimSpace(proposalID)
	for _, ref := range s.proposalRefs[daoID] {
		if ref == proposalID {
			return nil
		}
	}
	s.proposalRefs[daoID] = append(s.proposalRefs[daoID], proposalID)
	return nil
}

func (s *Store) TallyFor(_ context.Context, proposalID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tally := make(map[string]int64)
	for choice, weight := range s.tallies[strings.TrimSpace(proposalID)] {
		tally[choice] = weight
	}
	return tally, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

// PendingOutboxCount supports test assertions on emitted notifications.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, row := range s.outbox {
		if !row.published {
			count++
		}
	}
	return count
}

// PendingOutboxTypes lists pending event types in creation order.
func (s *Store) PendingOutboxTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		rows = append(rows, row.message)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.EventType)
	}
	return types
}

// ProposalRefs lists the references registered against a DAO.
func (s *Store) ProposalRefs(daoID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.proposalRefs[strings.TrimSpace(daoID)]...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ProposalRepository = (*Store)(nil)
var _ ports.DAODirectory = (*Store)(nil)
var _ ports.TallySource = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
