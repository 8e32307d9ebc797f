package access

import (
	"sync"

	"cardsmith/go-backend/internal/domains/contracts"
)

// Service is the process-wide authorizer. The owner is always authorized and
// can never be revoked; every other id comes from the persisted allow-list.
type Service struct {
	mu      sync.RWMutex
	ownerID int64
	list    AllowList
	store   *StateStore
}

var _ contracts.Authorizer = (*Service)(nil)

// NewService loads the allow-list from store. A nil store keeps it in memory.
func NewService(ownerID int64, store *StateStore) (*Service, error) {
	if store == nil {
		store = &StateStore{}
	}
	list, err := store.Bootstrap()
	if err != nil {
		return nil, contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return &Service{ownerID: ownerID, list: list, store: store}, nil
}

func (s *Service) IsOwner(id int64) bool {
	return s.ownerID > 0 && id == s.ownerID
}

func (s *Service) IsAuthorized(id int64) bool {
	if s.IsOwner(id) {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Contains(id)
}

// Grant adds id and persists the list. On a persistence failure the in-memory
// list is rolled back.
func (s *Service) Grant(id int64) error {
	if s.IsOwner(id) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list.Contains(id) {
		return nil
	}
	if err := s.list.Add(id); err != nil {
		return contracts.WrapCategorizedError(contracts.ErrorCategoryAPI, err)
	}
	if err := s.store.Persist(s.list); err != nil {
		s.list.Remove(id)
		return contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return nil
}

// Revoke removes id. Revoking an id that is not listed is a no-op.
func (s *Service) Revoke(id int64) error {
	if s.IsOwner(id) {
		return contracts.WrapCategorizedError(contracts.ErrorCategoryAPI, contracts.ErrAuthorizationDenied)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.list.Remove(id) {
		return nil
	}
	if err := s.store.Persist(s.list); err != nil {
		_ = s.list.Add(id)
		return contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, err)
	}
	return nil
}

func (s *Service) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.List()
}
