package lock

import (
	"context"
	"sync"

	"github.com/Veraticus/listwise/internal/model"
)

// MemoryService is an in-process lock service for single-node runs and tests.
type MemoryService struct {
	locks map[string]model.LockHolder
	mu    sync.RWMutex
}

// NewMemoryService creates an empty lock table.
func NewMemoryService() *MemoryService {
	return &MemoryService{locks: make(map[string]model.LockHolder)}
}

// IsLocked implements Service.
func (s *MemoryService) IsLocked(_ context.Context, sku string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.locks[sku]
	return ok, nil
}

// GetActiveLock implements Service.
func (s *MemoryService) GetActiveLock(_ context.Context, sku string) (*model.LockHolder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.locks[sku]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

// AcquireLock implements Service.
func (s *MemoryService) AcquireLock(_ context.Context, sku, platform, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := model.LockHolder{Platform: platform, AccountID: accountID}
	if h, ok := s.locks[sku]; ok && h != want {
		return &HeldError{SKU: sku, Holder: h}
	}
	s.locks[sku] = want
	return nil
}
