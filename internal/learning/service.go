// Package learning maintains the feedback-driven knowledge base and keyword
// patterns. "Learning" here is literal counter arithmetic persisted as rows:
// running-mean success rates, small confidence nudges and keyword overlap
// ratios. No statistical inference happens anywhere in this package.
package learning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/textmatch"
)

const (
	// helpfulRating is the documented threshold: a rating of 3 or more
	// marks the turn helpful.
	helpfulRating = 3

	// confidenceNudge is applied per feedback event, clamped to [0,1].
	confidenceNudge = 0.05

	// seedConfidence is the confidence a freshly promoted entry starts at.
	seedConfidence = 0.7

	// Knowledge ranking weights: similarity, confidence, success rate.
	weightSimilarity  = 0.4
	weightConfidence  = 0.3
	weightSuccessRate = 0.3

	// knowledgeThreshold gates FindLearnedResponse: strictly greater than,
	// so a candidate scoring exactly 0.6 is rejected.
	knowledgeThreshold = 0.6

	// patternThreshold gates ImprovedIntentDetection, also strict.
	patternThreshold = 0.7

	// lowConfidence is the classifier confidence below which a turn's
	// keywords are recorded as a new pattern.
	lowConfidence = 0.7

	maxPatternKeywords = 5
	maxPatternExamples = 5
)

// Store is the persistence surface the learning service needs.
type Store interface {
	RecordTurn(ctx context.Context, sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) (domain.Turn, error)
	RecordFeedback(ctx context.Context, sessionID, turnID string, rating int, category, comment string) error
	GetTurn(ctx context.Context, sessionID, turnID string) (domain.Turn, error)
	SetTurnHelpful(ctx context.Context, sessionID, turnID string, helpful bool) error
	ListKnowledgeEntries(ctx context.Context) ([]domain.KnowledgeEntry, error)
	PutKnowledgeEntry(ctx context.Context, e domain.KnowledgeEntry) error
	ListActivePatterns(ctx context.Context) ([]domain.LearningPattern, error)
	PutPattern(ctx context.Context, p domain.LearningPattern) error
}

// IDSource mints ids for new knowledge entries and patterns. Injected so
// tests can assert on deterministic ids.
type IDSource func() string

// Match is a learned response candidate that cleared the acceptance score.
type Match struct {
	Entry domain.KnowledgeEntry
	Score float64
}

// Service wraps a Store with the knowledge-base and pattern arithmetic.
type Service struct {
	store Store
	newID IDSource
	now   func() time.Time
}

func NewService(store Store, newID IDSource) (*Service, error) {
	if store == nil {
		return nil, errors.New("learning: store must not be nil")
	}
	if newID == nil {
		return nil, errors.New("learning: id source must not be nil")
	}
	return &Service{store: store, newID: newID, now: time.Now}, nil
}

// RecordTurn persists one exchange. Callers run it fire-and-forget; a failure
// here must never break the user-facing response.
func (s *Service) RecordTurn(ctx context.Context, sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) (domain.Turn, error) {
	turn, err := s.store.RecordTurn(ctx, sessionID, message, response, intentTag, source, confidence, responseTimeMs)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("learning: record turn: %w", err)
	}
	return turn, nil
}

// RecordFeedback stores the rating, marks the turn helpful iff rating >= 3
// and feeds the outcome into the knowledge base.
func (s *Service) RecordFeedback(ctx context.Context, sessionID, turnID string, rating int, category, comment string) error {
	turn, err := s.store.GetTurn(ctx, sessionID, turnID)
	if err != nil {
		return fmt.Errorf("learning: record feedback: %w", err)
	}

	if err := s.store.RecordFeedback(ctx, sessionID, turnID, rating, category, comment); err != nil {
		return fmt.Errorf("learning: record feedback: %w", err)
	}

	helpful := rating >= helpfulRating
	if err := s.store.SetTurnHelpful(ctx, sessionID, turnID, helpful); err != nil {
		return fmt.Errorf("learning: record feedback: %w", err)
	}

	if err := s.LearnFromFeedback(ctx, turn, helpful); err != nil {
		return fmt.Errorf("learning: record feedback: %w", err)
	}
	return nil
}

// LearnFromFeedback updates the knowledge entry matching the turn, or
// promotes the turn into a new entry when it was helpful and nothing matched.
// Success rate is a running mean over usage count; confidence moves by 0.05
// per event and stays inside [0,1].
func (s *Service) LearnFromFeedback(ctx context.Context, turn domain.Turn, wasHelpful bool) error {
	entries, err := s.store.ListKnowledgeEntries(ctx)
	if err != nil {
		return fmt.Errorf("learning: list knowledge: %w", err)
	}

	message := textmatch.Normalize(turn.Message)
	for _, e := range entries {
		if e.Intent != turn.Intent {
			continue
		}
		if !strings.Contains(message, textmatch.Normalize(e.Question)) {
			continue
		}

		outcome := 0.0
		if wasHelpful {
			outcome = 1.0
		}
		oldCount := float64(e.UsageCount)
		e.SuccessRate = (e.SuccessRate*oldCount + outcome) / (oldCount + 1)
		e.UsageCount++
		if wasHelpful {
			e.Confidence = clamp01(e.Confidence + confidenceNudge)
		} else {
			e.Confidence = clamp01(e.Confidence - confidenceNudge)
		}
		e.UpdatedAt = s.now().UTC()

		if err := s.store.PutKnowledgeEntry(ctx, e); err != nil {
			return fmt.Errorf("learning: update knowledge entry: %w", err)
		}
		return nil
	}

	if !wasHelpful {
		return nil
	}

	now := s.now().UTC()
	entry := domain.KnowledgeEntry{
		ID:          s.newID(),
		Question:    turn.Message,
		Answer:      turn.Response,
		Intent:      turn.Intent,
		Confidence:  seedConfidence,
		UsageCount:  1,
		SuccessRate: 1.0,
		Source:      domain.KnowledgeSourceLearned,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutKnowledgeEntry(ctx, entry); err != nil {
		return fmt.Errorf("learning: create knowledge entry: %w", err)
	}
	return nil
}

// FindLearnedResponse ranks knowledge entries against the message and returns
// the best one if its score clears the acceptance threshold. Candidates are
// entries on the same intent or whose stored question occurs inside the
// message; score = 0.4·similarity + 0.3·confidence + 0.3·successRate.
func (s *Service) FindLearnedResponse(ctx context.Context, text, intentTag string) (*Match, error) {
	entries, err := s.store.ListKnowledgeEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("learning: list knowledge: %w", err)
	}

	normalized := textmatch.Normalize(text)
	var best *Match
	for _, e := range entries {
		if !e.Active {
			continue
		}
		if e.Intent != intentTag && !strings.Contains(normalized, textmatch.Normalize(e.Question)) {
			continue
		}
		score := weightSimilarity*textmatch.Jaccard(text, e.Question) +
			weightConfidence*e.Confidence +
			weightSuccessRate*e.SuccessRate
		if best == nil || score > best.Score {
			best = &Match{Entry: e, Score: score}
		}
	}
	if best == nil || best.Score <= knowledgeThreshold {
		return nil, nil
	}
	return best, nil
}

// LearnNewPattern records the message's keyword set as a pattern when the
// classifier was unsure about it. An identical (keywords, intent) pattern is
// reinforced instead of duplicated.
func (s *Service) LearnNewPattern(ctx context.Context, text, intentTag string, confidence float64) error {
	if confidence >= lowConfidence {
		return nil
	}
	keywords := textmatch.Keywords(text, maxPatternKeywords)
	if len(keywords) == 0 {
		return nil
	}

	patterns, err := s.store.ListActivePatterns(ctx)
	if err != nil {
		return fmt.Errorf("learning: list patterns: %w", err)
	}

	for _, p := range patterns {
		if p.Intent != intentTag || !sameKeywords(p.Keywords, keywords) {
			continue
		}
		// A reuse lands here only when the intents already agree, which
		// confirms the pairing, so both counters move.
		p.AttemptCount++
		p.SuccessCount++
		p.Examples = appendExample(p.Examples, text)
		p.UpdatedAt = s.now().UTC()
		if err := s.store.PutPattern(ctx, p); err != nil {
			return fmt.Errorf("learning: update pattern: %w", err)
		}
		return nil
	}

	now := s.now().UTC()
	pattern := domain.LearningPattern{
		ID:           s.newID(),
		Keywords:     keywords,
		Intent:       intentTag,
		AttemptCount: 1,
		Examples:     []string{text},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.PutPattern(ctx, pattern); err != nil {
		return fmt.Errorf("learning: create pattern: %w", err)
	}
	return nil
}

// ImprovedIntentDetection re-scores the message against every active pattern
// by keyword overlap ratio. A result, when present, overrides the rule-based
// classification for the turn: learned signal takes precedence once it
// crosses the threshold.
func (s *Service) ImprovedIntentDetection(ctx context.Context, text string) (string, float64, error) {
	patterns, err := s.store.ListActivePatterns(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("learning: list patterns: %w", err)
	}

	tokens := textmatch.TokenSet(text)
	bestIntent := ""
	bestScore := 0.0
	for _, p := range patterns {
		if len(p.Keywords) == 0 {
			continue
		}
		matched := 0
		for _, kw := range p.Keywords {
			if _, ok := tokens[kw]; ok {
				matched++
			}
		}
		score := float64(matched) / float64(len(p.Keywords))
		if score > bestScore {
			bestScore = score
			bestIntent = p.Intent
		}
	}
	if bestScore <= patternThreshold {
		return "", 0, nil
	}
	return bestIntent, bestScore, nil
}

func sameKeywords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func appendExample(examples []string, text string) []string {
	for _, e := range examples {
		if e == text {
			return examples
		}
	}
	examples = append(examples, text)
	if len(examples) > maxPatternExamples {
		examples = examples[len(examples)-maxPatternExamples:]
	}
	return examples
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
