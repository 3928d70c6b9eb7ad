package domain

import (
	"sort"
	"strings"
)

// Matches reports whether a quiz passes the filter. Subject is an exact
// case-insensitive match, topic a case-insensitive substring match, and
// search a case-insensitive match over title, subject, topic, or any tag.
func (f ListFilter) Matches(q Quiz) bool {
	if f.Subject != "" && !strings.EqualFold(f.Subject, q.Subject) {
		return false
	}
	if f.Topic != "" && !strings.Contains(strings.ToLower(q.Topic), strings.ToLower(f.Topic)) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !containsFold(q.Title, needle) &&
			!containsFold(q.Subject, needle) &&
			!containsFold(q.Topic, needle) &&
			!anyContainsFold(q.Tags, needle) {
			return false
		}
	}
	return true
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

func anyContainsFold(values []string, lowerNeedle string) bool {
	for _, v := range values {
		if containsFold(v, lowerNeedle) {
			return true
		}
	}
	return false
}

// SortSummaries orders summaries newest first. Ties on createdAt break by id
// descending so both store backends list in the same order.
func SortSummaries(summaries []QuizSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
}
