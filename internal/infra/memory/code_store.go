package memory

import (
	"context"
	"sync"
	"time"

	"opennotes-gateway/internal/domain"
)

// CodeStore holds live auth-code records in process memory.
type CodeStore struct {
	mu    sync.RWMutex
	codes map[string]domain.AuthCode
}

func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]domain.AuthCode)}
}

func (s *CodeStore) Put(_ context.Context, code domain.AuthCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Code] = code
	return nil
}

func (s *CodeStore) Get(_ context.Context, code string) (domain.AuthCode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.codes[code]
	return record, ok, nil
}

func (s *CodeStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
	return nil
}

func (s *CodeStore) PurgeExpired(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, record := range s.codes {
		if now.After(record.ExpiresAt) {
			delete(s.codes, code)
		}
	}
	return nil
}
