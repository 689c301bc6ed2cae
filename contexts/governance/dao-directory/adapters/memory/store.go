package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/dao-directory/domain/entities"
	domainerrors "agora/contexts/governance/dao-directory/domain/errors"
	"agora/contexts/governance/dao-directory/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type daoRecord struct {
	dao          entities.DAO
	members      map[string]struct{}
	proposalRefs []string
}

type Store struct {
	mu sync.RWMutex

	daos   map[string]*daoRecord
	outbox map[string]outboxRecord
}

func NewStore(seed []entities.DAO) *Store {
	daos := make(map[string]*daoRecord, len(seed))
	for _, dao := range seed {
		daos[dao.DAOID] = newDAORecord(dao)
	}
	return &Store{
		daos:   daos,
		outbox: make(map[string]outboxRecord),
	}
}

func newDAORecord(dao entities.DAO) *daoRecord {
	members := make(map[string]struct{}, len(dao.Members))
	for _, member := range dao.Members {
		members[member] = struct{}{}
	}
	return &daoRecord{dao: dao, members: members}
}

func (s *Store) CreateDAO(_ context.Context, dao entities.DAO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.daos[dao.DAOID]; exists {
		return domainerrors.ErrConflict
	}
	s.daos[dao.DAOID] = newDAORecord(dao)
	return nil
}

func (s *Store) GetDAO(_ context.Context, daoID string) (entities.DAO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return entities.DAO{}, domainerrors.ErrDAONotFound
	}
	return record.snapshot(), nil
}

func (s *Store) ListDAOs(_ context.Context, filter ports.DAOFilter) ([]entities.DAO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.DAO, 0, len(s.daos))
	for _, record := range s.daos {
		dao := record.snapshot()
		if filter.OwnerAddress != "" && dao.OwnerAddress != strings.TrimSpace(filter.OwnerAddress) {
			continue
		}
		if filter.Status != "" && dao.Status != filter.Status {
			continue
		}
		items = append(items, dao)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateDAOStatus(_ context.Context, daoID string, status entities.DAOStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return domainerrors.ErrDAONotFound
	}
	record.dao.Status = status
	record.dao.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *Store) AddMember(_ context.Context, daoID string, address string, updatedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return false, domainerrors.ErrDAONotFound
	}
	address = strings.TrimSpace(address)
	if _, exists := record.members[address]; exists {
		return false, nil
	}
	record.members[address] = struct{}{}
	record.dao.UpdatedAt = updatedAt.UTC()
	return true, nil
}

func (s *Store) RemoveMember(_ context.Context, daoID string, address string, updatedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return false, domainerrors.ErrDAONotFound
	}
	address = strings.TrimSpace(address)
	if _, exists := record.members[address]; !exists {
		return false, nil
	}
	delete(record.members, address)
	record.dao.UpdatedAt = updatedAt.UTC()
	return true, nil
}

func (s *Store) IsMember(_ context.Context, daoID string, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return false, domainerrors.ErrDAONotFound
	}
	_, exists := record.members[strings.TrimSpace(address)]
	return exists, nil
}

func (s *Store) AddProposalRef(_ context.Context, daoID string, proposalID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return domainerrors.ErrDAONotFound
	}
	proposalID = strings.TrimSpace(proposalID)
	for _, ref := range record.proposalRefs {
		if ref == proposalID {
			return nil
		}
	}
	record.proposalRefs = append(record.proposalRefs, proposalID)
	record.dao.UpdatedAt = updatedAt.UTC()
	return nil
}

func (s *Store) ListProposalRefs(_ context.Context, daoID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.daos[strings.TrimSpace(daoID)]
	if !ok {
		return nil, domainerrors.ErrDAONotFound
	}
	return append([]string(nil), record.proposalRefs...), nil
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

func (r *daoRecord) snapshot() entities.DAO {
	dao := r.dao
	members := make([]string, 0, len(r.members))
	for member := range r.members {
		members = append(members, member)
	}
	sort.Strings(members)
	dao.Members = members
	return dao
}

var _ ports.DAORepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
