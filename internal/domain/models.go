package domain

import "time"

// Question kinds recognized by the gateway.
const (
	KindMCQ       = "mcq"
	KindTrueFalse = "tf"
	KindFillBlank = "fitb"
	KindMatching  = "matching"
	KindFRQ       = "frq"
)

// KnownKinds lists every question kind the validator accepts.
var KnownKinds = []string{KindMCQ, KindTrueFalse, KindFillBlank, KindMatching, KindFRQ}

// Question is a tagged union over the five question kinds. Kind-specific
// fields are omitted from JSON when empty so a stored document only carries
// the fields its kind uses.
type Question struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Question    string `json:"question"`
	Explanation string `json:"explanation,omitempty"`
	Points      int    `json:"points"`
	Hint        string `json:"hint,omitempty"`

	// mcq
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []int    `json:"correctAnswers,omitempty"`
	// tf
	CorrectAnswer *bool `json:"correctAnswer,omitempty"`
	// fitb
	Blanks []string `json:"blanks,omitempty"`
	// matching
	LeftItems    []string    `json:"leftItems,omitempty"`
	RightItems   []string    `json:"rightItems,omitempty"`
	CorrectPairs map[int]int `json:"correctPairs,omitempty"`
	// frq accepted-answer variants for self-evaluation
	AcceptedAnswers []string `json:"acceptedAnswers,omitempty"`

	// Attribution set by the combiner on ephemeral quizzes only.
	SourceQuiz  string `json:"sourceQuiz,omitempty"`
	SourceTitle string `json:"sourceTitle,omitempty"`
}

// Quiz is a stored quiz document. ID is immutable once assigned.
type Quiz struct {
	ID            string     `json:"id"`
	SchemaVersion int        `json:"schemaVersion"`
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic,omitempty"`
	Difficulty    string     `json:"difficulty,omitempty"`
	Description   string     `json:"description,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Questions     []Question `json:"questions"`
	Author        string     `json:"author,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// QuizSummary is the list-view projection of a quiz: metadata plus a
// question count, never the question bodies.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	Topic         string    `json:"topic,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	Description   string    `json:"description,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	QuestionCount int       `json:"questionCount"`
	Author        string    `json:"author,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary projects a quiz into its list form.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Difficulty:    q.Difficulty,
		Description:   q.Description,
		Tags:          q.Tags,
		QuestionCount: len(q.Questions),
		Author:        q.Author,
		CreatedAt:     q.CreatedAt,
	}
}

// ListFilter narrows a quiz listing. Zero value matches everything.
type ListFilter struct {
	Subject string // exact, case-insensitive
	Topic   string // substring, case-insensitive
	Search  string // free text over title/subject/topic/tags
}

// CombinedQuiz is assembled from several stored quizzes and lives only in
// the response that returns it. It is never persisted.
type CombinedQuiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Questions     []Question `json:"questions"`
	SourceQuizzes []string   `json:"sourceQuizzes"`
	IsTemporary   bool       `json:"isTemporary"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Caller is a registered integration allowed through the proxy.
type Caller struct {
	ID          string
	Secret      string
	Active      bool
	RateLimit   int
	DisplayName string
	Owner       string
	CreatedAt   time.Time
}

// Role describes what a resolved principal may do.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleApp   Role = "app"
)

// Principal is the outcome of the authorization chain.
type Principal struct {
	Role     Role
	CallerID string
}

// AuthCode is a single-use credential-handoff record owned exclusively by
// the code broker.
type AuthCode struct {
	Code       string    `json:"code"`
	Credential string    `json:"credential"`
	User       string    `json:"user,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Used       bool      `json:"used"`
}

// RateDecision reports the limiter's verdict for one request.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // whole seconds, populated when disallowed
}
