package app

import (
	"fmt"
	"strings"

	"opennotes-gateway/internal/domain"
)

// ValidateQuiz checks the structural invariants enforced at creation time
// and returns every violation found, not just the first.
//
// Structural rules exist for mcq and frq only; tf, fitb, and matching pass
// on type presence alone. That asymmetry is kept on purpose: stored
// documents of those kinds predate any stricter rules, and tightening here
// would orphan them.
func ValidateQuiz(quiz domain.Quiz) []string {
	var issues []string
	if strings.TrimSpace(quiz.Title) == "" {
		issues = append(issues, "title is required")
	}
	if strings.TrimSpace(quiz.Subject) == "" {
		issues = append(issues, "subject is required")
	}
	if len(quiz.Questions) == 0 {
		issues = append(issues, "at least one question is required")
	}

	for i, question := range quiz.Questions {
		issues = append(issues, validateQuestion(i, question)...)
	}
	return issues
}

func validateQuestion(index int, q domain.Question) []string {
	label := fmt.Sprintf("question %d", index+1)
	if !knownKind(q.Type) {
		return []string{fmt.Sprintf("%s: unknown type %q", label, q.Type)}
	}

	var issues []string
	switch q.Type {
	case domain.KindMCQ:
		options := 0
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) != "" {
				options++
			}
		}
		if options < 2 {
			issues = append(issues, fmt.Sprintf("%s: mcq needs at least 2 non-empty options", label))
		}
		if len(q.CorrectAnswers) == 0 {
			issues = append(issues, fmt.Sprintf("%s: mcq needs at least 1 correct answer index", label))
		}
	case domain.KindFRQ:
		accepted := 0
		for _, ans := range q.AcceptedAnswers {
			if strings.TrimSpace(ans) != "" {
				accepted++
			}
		}
		if accepted == 0 {
			issues = append(issues, fmt.Sprintf("%s: frq needs at least 1 non-empty accepted answer", label))
		}
	}
	return issues
}

func knownKind(kind string) bool {
	for _, known := range domain.KnownKinds {
		if kind == known {
			return true
		}
	}
	return false
}
