package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"opennotes-gateway/internal/domain"
)

// QuizStore abstracts quiz persistence. Both backends must behave
// identically from the caller's perspective; the choice between them is an
// infrastructure concern that never shows in a response.
type QuizStore interface {
	Get(ctx context.Context, id string) (domain.Quiz, error)
	Save(ctx context.Context, quiz domain.Quiz) error
	List(ctx context.Context, filter domain.ListFilter) ([]domain.QuizSummary, error)
	Delete(ctx context.Context, id string) error
}

// QuizService contains the quiz use cases: create (with validation), read,
// list, delete, and combine.
type QuizService struct {
	store QuizStore
	clock func() time.Time
	newID func() string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(store QuizStore) *QuizService {
	return &QuizService{
		store: store,
		clock: time.Now,
		newID: uuid.NewString,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewQuizServiceWithClock is test-only for deterministic ids and timestamps.
func NewQuizServiceWithClock(store QuizStore, clock func() time.Time, newID func() string) *QuizService {
	s := NewQuizService(store)
	s.clock = clock
	if newID != nil {
		s.newID = newID
	}
	return s
}

// Create validates and persists a new quiz. The store-generated id and the
// per-question ids are assigned here and never change afterwards.
func (s *QuizService) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if issues := ValidateQuiz(quiz); len(issues) > 0 {
		return domain.Quiz{}, &domain.ValidationError{Issues: issues}
	}

	now := s.clock()
	quiz.ID = s.newID()
	if quiz.SchemaVersion == 0 {
		quiz.SchemaVersion = 1
	}
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	for i := range quiz.Questions {
		quiz.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		if quiz.Questions[i].Points <= 0 {
			quiz.Questions[i].Points = 1
		}
	}

	if err := s.store.Save(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Get returns the full quiz document.
func (s *QuizService) Get(ctx context.Context, id string) (domain.Quiz, error) {
	return s.store.Get(ctx, id)
}

// List returns summaries only, never question bodies.
func (s *QuizService) List(ctx context.Context, filter domain.ListFilter) ([]domain.QuizSummary, error) {
	return s.store.List(ctx, filter)
}

// Delete removes a quiz. Authorization is the router's concern.
func (s *QuizService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
