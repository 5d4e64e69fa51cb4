package domain

import "time"

// Knowledge entry sources: seeded statically vs promoted from conversations.
const (
	KnowledgeSourceStatic  = "static"
	KnowledgeSourceLearned = "learned"
)

// KnowledgeEntry is a learned (question, answer, intent) triple promoted from
// a well-received turn. Confidence and SuccessRate drift with feedback.
type KnowledgeEntry struct {
	ID          string
	Question    string
	Answer      string
	Intent      string
	Confidence  float64
	UsageCount  int
	SuccessRate float64
	Source      string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LearningPattern is a (keyword-set, intent) association extracted from a
// low-confidence turn, used to re-score ambiguous classifications once its
// keyword overlap with a new message is strong enough.
type LearningPattern struct {
	ID           string
	Keywords     []string
	Intent       string
	SuccessCount int
	AttemptCount int
	Examples     []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
