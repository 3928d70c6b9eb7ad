package memory

import (
	"context"
	"sync"

	"opennotes-gateway/internal/domain"
)

// QuizStore is the in-memory implementation of app.QuizStore, used as the
// development fallback when no durable backend is configured.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

// NewQuizStoreWithSeed preloads fixed-id seed content.
func NewQuizStoreWithSeed(seed []domain.Quiz) *QuizStore {
	store := NewQuizStore()
	for _, quiz := range seed {
		store.quizzes[quiz.ID] = quiz
	}
	return store
}

func (s *QuizStore) Get(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) Save(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) List(_ context.Context, filter domain.ListFilter) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]domain.QuizSummary, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if filter.Matches(quiz) {
			summaries = append(summaries, quiz.Summary())
		}
	}
	domain.SortSummaries(summaries)
	return summaries, nil
}

func (s *QuizStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}
