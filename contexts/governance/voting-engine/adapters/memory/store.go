package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance/voting-engine/domain/errors"
	"agora/contexts/governance/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	votes     map[string]entities.Vote
	byBallot  map[string]string
	proposals map[string]ports.ProposalProjection
	daos      map[string]ports.DAOProjection
	members   map[string]map[string]struct{}
	balances  map[string]map[string]int64
	outbox    map[string]outboxRecord
}

func NewStore(seed []entities.Vote) *Store {
	votes := make(map[string]entities.Vote, len(seed))
	byBallot := make(map[string]string, len(seed))
	for _, vote := range seed {
		votes[vote.VoteID] = vote
		byBallot[ballotKey(vote.ProposalID, vote.VoterAddress)] = vote.VoteID
	}
	return &Store{
		votes:     votes,
		byBallot:  byBallot,
		proposals: make(map[string]ports.ProposalProjection),
		daos:      make(map[string]ports.DAOProjection),
		members:   make(map[string]map[string]struct{}),
		balances:  make(map[string]map[string]int64),
		outbox:    make(map[string]outboxRecord),
	}
}

func ballotKey(proposalID string, voterAddress string) string {
	return strings.TrimSpace(proposalID) + "|" + strings.TrimSpace(voterAddress)
}

// SetProposal seeds the proposal projection eligibility checks read.
func (s *Store) SetProposal(proposal ports.ProposalProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ProposalID] = proposal
}

// SetDAO seeds the directory projection eligibility checks read.
func (s *Store) SetDAO(dao ports.DAOProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daos[dao.DAOID] = dao
	if _, ok := s.members[dao.DAOID]; !ok {
		s.members[dao.DAOID] = make(map[string]struct{})
	}
}

// SetMember seeds DAO membership.
func (s *Store) SetMember(daoID string, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[daoID]; !ok {
		s.members[daoID] = make(map[string]struct{})
	}
	s.members[daoID][address] = struct{}{}
}

// SetTokenBalance seeds a voter's weight for token-weighted DAOs.
func (s *Store) SetTokenBalance(daoID string, address string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[daoID]; !ok {
		s.balances[daoID] = make(map[string]int64)
	}
	s.balances[daoID][address] = balance
}

func (s *Store) InsertVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ballotKey(vote.ProposalID, vote.VoterAddress)
	if _, exists := s.byBallot[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	if _, exists := s.votes[vote.VoteID]; exists {
		return domainerrors.ErrConflict
	}
	s.votes[vote.VoteID] = vote
	s.byBallot[key] = vote.VoteID
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) GetVoteByVoter(_ context.Context, proposalID string, voterAddress string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voteID, ok := s.byBallot[ballotKey(proposalID, voterAddress)]
	if !ok {
		return entities.Vote{}, false, nil
	}
	return s.votes[voteID], true, nil
}

func (s *Store) ListVotesByProposal(_ context.Context, proposalID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposalID = strings.TrimSpace(proposalID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ProposalID == proposalID {
			items = append(items, vote)
		}
	}
	sortVotes(items)
	return items, nil
}

func (s *Store) ListVotesByDAO(_ context.Context, daoID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	daoID = strings.TrimSpace(daoID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.DAOID == daoID {
			items = append(items, vote)
		}
	}
	sortVotes(items)
	return items, nil
}

func sortVotes(items []entities.Vote) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].VoteID < items[j].VoteID
		}
		return items[i].CastAt.Before(items[j].CastAt)
	})
}

func (s *Store) GetProposal(_ context.Context, proposalID string) (ports.ProposalProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return ports.ProposalProjection{}, domainerrors.ErrProposalNotFound
	}
	return proposal, nil
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

func (s *Store) WeightFor(_ context.Context, daoID string, voterAddress string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[strings.TrimSpace(daoID)][strings.TrimSpace(voterAddress)], nil
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

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.ProposalGateway = (*Store)(nil)
var _ ports.DAOGateway = (*Store)(nil)
var _ ports.TokenBalanceSource = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
