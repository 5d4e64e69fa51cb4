package domain

import "time"

// Turn is a single persisted exchange: the visitor's message and the response
// the bot produced for it. Immutable once written except for the Helpful flag,
// which feedback flips later.
type Turn struct {
	PK             string
	SK             string
	ID             string
	SessionID      string
	Message        string
	Response       string
	Intent         string
	Confidence     float64
	Source         string
	ResponseTimeMs int64
	Helpful        *bool
	CreatedAt      time.Time
	TTL            int64
}

// ConversationMeta stores aggregate conversation state for a session.
type ConversationMeta struct {
	PK           string
	SK           string
	SessionID    string
	LastActivity string
	Turns        int
	TTL          int64
}

// Feedback category tags a caller may submit alongside a rating.
const (
	FeedbackHelpful    = "helpful"
	FeedbackNotHelpful = "not_helpful"
	FeedbackSuggestion = "suggestion"
	FeedbackComplaint  = "complaint"
	FeedbackCompliment = "compliment"
)

// Feedback is an explicit rating a visitor submitted for one Turn.
type Feedback struct {
	PK        string
	SK        string
	SessionID string
	TurnID    string
	Rating    int
	Category  string
	Comment   string
	CreatedAt time.Time
	TTL       int64
}
