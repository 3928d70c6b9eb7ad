package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opennotes-gateway/internal/domain"
)

// CombineRequest names the inputs of a combine operation. Shuffle defaults
// to true when left nil.
type CombineRequest struct {
	QuizIDs       []string
	QuestionCount int
	Shuffle       *bool
}

// Combine merges the questions of several stored quizzes into one ephemeral
// quiz. The operation is all-or-nothing: if any id cannot be resolved, it
// fails reporting every missing id and nothing is returned or persisted.
func (s *QuizService) Combine(ctx context.Context, req CombineRequest) (domain.CombinedQuiz, error) {
	if len(req.QuizIDs) == 0 {
		return domain.CombinedQuiz{}, &domain.ValidationError{Issues: []string{"quizIds must name at least one quiz"}}
	}

	var (
		quizzes []domain.Quiz
		missing []string
	)
	for _, id := range req.QuizIDs {
		quiz, err := s.store.Get(ctx, id)
		if errors.Is(err, domain.ErrQuizNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return domain.CombinedQuiz{}, err
		}
		quizzes = append(quizzes, quiz)
	}
	if len(missing) > 0 {
		return domain.CombinedQuiz{}, &domain.MissingQuizzesError{IDs: missing}
	}

	var questions []domain.Question
	var titles []string
	var subjects []string
	for _, quiz := range quizzes {
		titles = append(titles, quiz.Title)
		subjects = appendUnique(subjects, quiz.Subject)
		for _, q := range quiz.Questions {
			q.SourceQuiz = quiz.ID
			q.SourceTitle = quiz.Title
			questions = append(questions, q)
		}
	}

	if req.Shuffle == nil || *req.Shuffle {
		s.shuffleQuestions(questions)
	}
	// Truncation happens after the shuffle so a capped result is a uniform
	// random subset rather than a biased prefix.
	if req.QuestionCount > 0 && req.QuestionCount < len(questions) {
		questions = questions[:req.QuestionCount]
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("cq%d", i+1)
	}

	now := s.clock()
	return domain.CombinedQuiz{
		ID:            fmt.Sprintf("combined-%d", now.UnixMilli()),
		Title:         strings.Join(titles, " + "),
		Subject:       strings.Join(subjects, ", "),
		Questions:     questions,
		SourceQuizzes: req.QuizIDs,
		IsTemporary:   true,
		CreatedAt:     now,
	}, nil
}

// shuffleQuestions applies a uniform Fisher-Yates shuffle in place.
func (s *QuizService) shuffleQuestions(questions []domain.Question) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	for i := len(questions) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
