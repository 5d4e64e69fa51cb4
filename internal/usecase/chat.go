package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-chatbot/internal/bank"
	"portfolio-chatbot/internal/cache"
	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/intent"
	"portfolio-chatbot/internal/learning"
	"portfolio-chatbot/internal/repository"
	"portfolio-chatbot/internal/worker"
)

const (
	defaultMaxMessage = 800

	// lowConfidence mirrors the learning package threshold: a resolved
	// confidence below it queues the message for pattern extraction.
	lowConfidence = 0.7
)

// Classifier is the rule-based intent matcher.
type Classifier interface {
	Classify(text string) intent.Classification
}

// Responder renders a response for a topic intent. Total by contract.
type Responder interface {
	Respond(ctx context.Context, intentTag, query string) string
}

// ResponseCache is the in-memory response accelerator.
type ResponseCache interface {
	Get(query, intentTag string) (*cache.Entry, cache.HitKind)
	Put(query, intentTag string, e cache.Entry)
}

// Learner is the knowledge-base and pattern-learning surface.
type Learner interface {
	RecordTurn(ctx context.Context, sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) (domain.Turn, error)
	RecordFeedback(ctx context.Context, sessionID, turnID string, rating int, category, comment string) error
	FindLearnedResponse(ctx context.Context, text, intentTag string) (*learning.Match, error)
	LearnNewPattern(ctx context.Context, text, intentTag string, confidence float64) error
	ImprovedIntentDetection(ctx context.Context, text string) (string, float64, error)
}

// TaskQueue accepts fire-and-forget background work.
type TaskQueue interface {
	Submit(t worker.Task) bool
}

// ChatService is the router: it resolves every inbound message to a reply
// envelope through the command tables, the cache, the learned knowledge base
// and the response banks, in that order. Handle never fails; the worst case
// is a generic fallback reply.
type ChatService struct {
	classifier Classifier
	responder  Responder
	cache      ResponseCache
	learner    Learner
	tasks      TaskQueue
	log        *slog.Logger

	maxMessageLen int
	now           func() time.Time
}

type ChatInput struct {
	Message   string
	SessionID string
	UserID    string
}

type FeedbackInput struct {
	ConversationID string
	MessageID      string
	Rating         int
	FeedbackType   string
	Comment        string
}

func NewChatService(classifier Classifier, responder Responder, responseCache ResponseCache, learner Learner, tasks TaskQueue, log *slog.Logger, maxMessageLen int) (*ChatService, error) {
	if classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if responder == nil {
		return nil, errors.New("usecase: responder must not be nil")
	}
	if responseCache == nil {
		return nil, errors.New("usecase: cache must not be nil")
	}
	if learner == nil {
		return nil, errors.New("usecase: learner must not be nil")
	}
	if tasks == nil {
		return nil, errors.New("usecase: task queue must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessage
	}
	return &ChatService{
		classifier:    classifier,
		responder:     responder,
		cache:         responseCache,
		learner:       learner,
		tasks:         tasks,
		log:           log,
		maxMessageLen: maxMessageLen,
		now:           time.Now,
	}, nil
}

// Handle resolves one inbound message. It always returns a well-formed
// envelope: a panic anywhere in the pipeline degrades to the error fallback
// reply rather than surfacing to the caller.
func (s *ChatService) Handle(ctx context.Context, in ChatInput) (reply domain.Reply) {
	start := s.now()

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("chat pipeline panicked", "session", sessionID, "panic", r)
			reply = s.errorFallback(sessionID, start)
		}
	}()

	message := strings.TrimSpace(in.Message)
	if runes := []rune(message); len(runes) > s.maxMessageLen {
		message = string(runes[:s.maxMessageLen])
	}

	cls := s.classifier.Classify(message)

	if cls.IsCommand() {
		reply = s.commandReply(sessionID, cls, start)
		s.recordTurn(sessionID, message, reply)
		return reply
	}

	// A strong learned pattern overrides the rule-based intent.
	if learnedIntent, score, err := s.learner.ImprovedIntentDetection(ctx, message); err != nil {
		s.log.Warn("pattern detection unavailable", "session", sessionID, "err", err)
	} else if learnedIntent != "" {
		cls.Intent = learnedIntent
		cls.Confidence = score
	}

	response, source, confidence := s.resolve(ctx, message, cls)

	reply = domain.Reply{
		Response:       response,
		Intent:         cls.Intent,
		Confidence:     confidence,
		Source:         source,
		SessionID:      sessionID,
		ResponseTimeMs: s.elapsedMs(start),
	}

	s.recordTurn(sessionID, message, reply)
	if confidence < lowConfidence {
		s.learnPattern(sessionID, message, cls.Intent, confidence)
	}
	return reply
}

// resolve runs cache → knowledge base → bank. A panic inside any of those
// degrades to the intent's fixed fallback sentence.
func (s *ChatService) resolve(ctx context.Context, message string, cls intent.Classification) (response, source string, confidence float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("response resolution panicked", "intent", cls.Intent, "panic", r)
			response = bank.Fallback(cls.Intent)
			source = domain.SourceFallback
			confidence = cls.Confidence
		}
	}()

	if entry, kind := s.cache.Get(message, cls.Intent); entry != nil {
		suffix := domain.SourceSuffixCached
		if kind == cache.HitSimilar {
			suffix = domain.SourceSuffixSimilar
		}
		return entry.Response, entry.Source + suffix, entry.Confidence
	}

	match, err := s.learner.FindLearnedResponse(ctx, message, cls.Intent)
	if err != nil {
		s.log.Warn("knowledge base unavailable", "intent", cls.Intent, "err", err)
	}
	if match != nil {
		s.cache.Put(message, cls.Intent, cache.Entry{
			Response:   match.Entry.Answer,
			Confidence: match.Score,
			Source:     domain.SourceLearned,
		})
		return match.Entry.Answer, domain.SourceLearned, match.Score
	}

	response = s.responder.Respond(ctx, cls.Intent, message)
	s.cache.Put(message, cls.Intent, cache.Entry{
		Response:   response,
		Confidence: cls.Confidence,
		Source:     domain.SourceDirect,
	})
	return response, domain.SourceDirect, cls.Confidence
}

// commandReply builds the short-circuit envelope for navigation and theme
// commands. Commands bypass the cache and the knowledge base entirely.
func (s *ChatService) commandReply(sessionID string, cls intent.Classification, start time.Time) domain.Reply {
	reply := domain.Reply{
		Intent:         cls.Intent,
		Confidence:     cls.Confidence,
		SessionID:      sessionID,
		ResponseTimeMs: s.elapsedMs(start),
	}
	switch {
	case cls.Theme != "":
		reply.Source = domain.SourceThemeDirect
		reply.ThemeAction = cls.Theme
		reply.Response = themeConfirmation(cls.Theme)
	default:
		reply.Source = domain.SourceNavigationDirect
		reply.NavigationAction = cls.Route
		reply.Response = navigationConfirmation(cls.Route)
	}
	return reply
}

// SubmitFeedback validates and persists explicit feedback for a turn, then
// feeds it into the knowledge base. Unlike Handle this path may error: it is
// the widget's admin callback, not the chat surface.
func (s *ChatService) SubmitFeedback(ctx context.Context, in FeedbackInput) error {
	sessionID := strings.TrimSpace(in.ConversationID)
	turnID := strings.TrimSpace(in.MessageID)
	if sessionID == "" || turnID == "" {
		return newError(ErrorInvalidInput, "missing_conversation_or_message", nil)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return newError(ErrorInvalidInput, "rating_out_of_range", nil)
	}
	if !validFeedbackType(in.FeedbackType) {
		return newError(ErrorInvalidInput, "unknown_feedback_type", nil)
	}

	err := s.learner.RecordFeedback(ctx, sessionID, turnID, in.Rating, in.FeedbackType, strings.TrimSpace(in.Comment))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrorNotFound, "turn_not_found", err)
		}
		return newError(ErrorInternal, "feedback_store_error", err)
	}
	return nil
}

func (s *ChatService) recordTurn(sessionID, message string, reply domain.Reply) {
	s.tasks.Submit(worker.Task{
		Name: "record_turn",
		Run: func(ctx context.Context) error {
			_, err := s.learner.RecordTurn(ctx, sessionID, message, reply.Response, reply.Intent, reply.Source, reply.Confidence, reply.ResponseTimeMs)
			return err
		},
	})
}

func (s *ChatService) learnPattern(sessionID, message, intentTag string, confidence float64) {
	s.tasks.Submit(worker.Task{
		Name: "learn_pattern",
		Run: func(ctx context.Context) error {
			return s.learner.LearnNewPattern(ctx, message, intentTag, confidence)
		},
	})
}

func (s *ChatService) errorFallback(sessionID string, start time.Time) domain.Reply {
	return domain.Reply{
		Response:       bank.Fallback(intent.Greeting),
		Intent:         intent.Default,
		Confidence:     0,
		Source:         domain.SourceErrorFallback,
		SessionID:      sessionID,
		ResponseTimeMs: s.elapsedMs(start),
	}
}

func (s *ChatService) elapsedMs(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}

func themeConfirmation(theme string) string {
	switch theme {
	case domain.ThemeDark:
		return "Đã bật dark mode cho bạn! 🌙"
	case domain.ThemeLight:
		return "Đã bật light mode cho bạn! ☀️"
	default:
		return "Đã chuyển giao diện theo cài đặt hệ thống."
	}
}

func navigationConfirmation(route string) string {
	path, ok := domain.RoutePath[route]
	if !ok {
		path = "/"
	}
	return fmt.Sprintf("Đang chuyển bạn tới trang %s nhé!", path)
}

func validFeedbackType(t string) bool {
	switch t {
	case domain.FeedbackHelpful, domain.FeedbackNotHelpful, domain.FeedbackSuggestion,
		domain.FeedbackComplaint, domain.FeedbackCompliment:
		return true
	}
	return false
}

var newUUID = func() string {
	return uuid.NewString()
}
