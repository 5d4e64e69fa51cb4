package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"portfolio-chatbot/internal/bank"
	"portfolio-chatbot/internal/cache"
	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/intent"
	"portfolio-chatbot/internal/learning"
	"portfolio-chatbot/internal/repository"
	"portfolio-chatbot/internal/worker"
)

type stubLearner struct {
	match          *learning.Match
	matchErr       error
	learnedIntent  string
	learnedScore   float64
	detectErr      error
	feedbackErr    error
	recordedTurns  []domain.Turn
	patternCalls   []string
	feedbackCalls  int
	feedbackRating int
}

func (l *stubLearner) RecordTurn(ctx context.Context, sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) (domain.Turn, error) {
	t := domain.Turn{SessionID: sessionID, Message: message, Response: response, Intent: intentTag, Source: source, Confidence: confidence, ResponseTimeMs: responseTimeMs}
	l.recordedTurns = append(l.recordedTurns, t)
	return t, nil
}

func (l *stubLearner) RecordFeedback(ctx context.Context, sessionID, turnID string, rating int, category, comment string) error {
	l.feedbackCalls++
	l.feedbackRating = rating
	return l.feedbackErr
}

func (l *stubLearner) FindLearnedResponse(ctx context.Context, text, intentTag string) (*learning.Match, error) {
	return l.match, l.matchErr
}

func (l *stubLearner) LearnNewPattern(ctx context.Context, text, intentTag string, confidence float64) error {
	l.patternCalls = append(l.patternCalls, intentTag)
	return nil
}

func (l *stubLearner) ImprovedIntentDetection(ctx context.Context, text string) (string, float64, error) {
	return l.learnedIntent, l.learnedScore, l.detectErr
}

// syncQueue executes submitted tasks inline so tests observe their effects
// without timing games.
type syncQueue struct {
	submitted []string
}

func (q *syncQueue) Submit(t worker.Task) bool {
	q.submitted = append(q.submitted, t.Name)
	_ = t.Run(context.Background())
	return true
}

type stubResponder struct {
	response string
	panics   bool
}

func (r *stubResponder) Respond(ctx context.Context, intentTag, query string) string {
	if r.panics {
		panic("responder exploded")
	}
	if r.response != "" {
		return r.response
	}
	return "câu trả lời cho " + intentTag
}

type panickyClassifier struct{}

func (panickyClassifier) Classify(text string) intent.Classification {
	panic("classifier exploded")
}

type fixture struct {
	svc     *ChatService
	learner *stubLearner
	queue   *syncQueue
	resp    *stubResponder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		learner: &stubLearner{},
		queue:   &syncQueue{},
		resp:    &stubResponder{},
	}
	log := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	svc, err := NewChatService(intent.NewClassifier(), f.resp, cache.New(0, 0), f.learner, f.queue, log, 0)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewChatService_Validation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	c := intent.NewClassifier()
	resp := &stubResponder{}
	rc := cache.New(0, 0)
	l := &stubLearner{}
	q := &syncQueue{}

	_, err := NewChatService(nil, resp, rc, l, q, log, 0)
	require.Error(t, err)
	_, err = NewChatService(c, nil, rc, l, q, log, 0)
	require.Error(t, err)
	_, err = NewChatService(c, resp, nil, l, q, log, 0)
	require.Error(t, err)
	_, err = NewChatService(c, resp, rc, nil, q, log, 0)
	require.Error(t, err)
	_, err = NewChatService(c, resp, rc, l, nil, log, 0)
	require.Error(t, err)
}

func TestHandle_ThemeCommand(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "bật dark mode", SessionID: "s1"})

	require.Equal(t, intent.ThemeDark, reply.Intent)
	require.Equal(t, domain.SourceThemeDirect, reply.Source)
	require.Equal(t, domain.ThemeDark, reply.ThemeAction)
	require.Empty(t, reply.NavigationAction)
	require.Equal(t, 0.95, reply.Confidence)
	require.Equal(t, "s1", reply.SessionID)
	require.NotEmpty(t, reply.Response)
}

func TestHandle_NavigationCommand(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "chuyển tới projects", SessionID: "s1"})

	require.Equal(t, intent.NavigateProjects, reply.Intent)
	require.Equal(t, domain.SourceNavigationDirect, reply.Source)
	require.Equal(t, domain.RouteProjects, reply.NavigationAction)
	require.Empty(t, reply.ThemeAction)
	require.Contains(t, reply.Response, "/projects")
}

func TestHandle_CommandsSkipCacheAndKnowledgeBase(t *testing.T) {
	f := newFixture(t)
	f.learner.match = &learning.Match{Entry: domain.KnowledgeEntry{Answer: "learned"}, Score: 0.99}

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "bật dark mode", SessionID: "s1"})
	require.Equal(t, domain.SourceThemeDirect, reply.Source)

	// Only the turn recording ran; no pattern learning for a 0.95 command.
	require.Equal(t, []string{"record_turn"}, f.queue.submitted)
}

func TestHandle_TopicIntentUsesBank(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Equal(t, intent.Projects, reply.Intent)
	require.Equal(t, domain.SourceDirect, reply.Source)
	require.Equal(t, 0.85, reply.Confidence)
	require.Equal(t, "câu trả lời cho projects", reply.Response)
}

func TestHandle_RepeatQueryServedFromCache(t *testing.T) {
	f := newFixture(t)
	in := ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"}

	first := f.svc.Handle(context.Background(), in)
	require.Equal(t, domain.SourceDirect, first.Source)

	second := f.svc.Handle(context.Background(), in)
	require.Equal(t, domain.SourceDirect+domain.SourceSuffixCached, second.Source)
	require.Equal(t, first.Response, second.Response)
	require.Equal(t, first.Confidence, second.Confidence)
}

func TestHandle_SimilarQueryScalesConfidence(t *testing.T) {
	f := newFixture(t)

	first := f.svc.Handle(context.Background(), ChatInput{Message: "dự án alpha beta gamma delta", SessionID: "s1"})
	require.Equal(t, domain.SourceDirect, first.Source)

	// 5 shared words out of a 6-word union.
	second := f.svc.Handle(context.Background(), ChatInput{Message: "dự án alpha beta gamma", SessionID: "s1"})
	require.Equal(t, domain.SourceDirect+domain.SourceSuffixSimilar, second.Source)
	require.Equal(t, first.Response, second.Response)
	require.InDelta(t, first.Confidence*0.9, second.Confidence, 1e-9)
}

func TestHandle_LearnedResponseBeatsBank(t *testing.T) {
	f := newFixture(t)
	f.learner.match = &learning.Match{
		Entry: domain.KnowledgeEntry{Answer: "Mình dùng Kubernetes hằng ngày."},
		Score: 0.82,
	}

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "bạn rành kỹ năng gì", SessionID: "s1"})

	require.Equal(t, domain.SourceLearned, reply.Source)
	require.Equal(t, "Mình dùng Kubernetes hằng ngày.", reply.Response)
	require.Equal(t, 0.82, reply.Confidence)
}

func TestHandle_PatternOverridesRuleIntent(t *testing.T) {
	f := newFixture(t)
	f.learner.learnedIntent = intent.Projects
	f.learner.learnedScore = 0.8

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "câu hỏi mơ hồ", SessionID: "s1"})

	require.Equal(t, intent.Projects, reply.Intent)
	require.Equal(t, 0.8, reply.Confidence)
}

func TestHandle_UnknownMessageGetsDefaultReply(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "asdkjasdkj random", SessionID: "s1"})

	require.Equal(t, intent.Default, reply.Intent)
	require.Equal(t, 0.3, reply.Confidence)
	require.NotEmpty(t, reply.Response)
}

func TestHandle_LowConfidenceQueuesPatternLearning(t *testing.T) {
	f := newFixture(t)

	f.svc.Handle(context.Background(), ChatInput{Message: "asdkjasdkj random", SessionID: "s1"})

	require.Equal(t, []string{"record_turn", "learn_pattern"}, f.queue.submitted)
	require.Equal(t, []string{intent.Default}, f.learner.patternCalls)
}

func TestHandle_ConfidentReplySkipsPatternLearning(t *testing.T) {
	f := newFixture(t)

	f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Equal(t, []string{"record_turn"}, f.queue.submitted)
	require.Empty(t, f.learner.patternCalls)
}

func TestHandle_RecordsTurn(t *testing.T) {
	f := newFixture(t)

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Len(t, f.learner.recordedTurns, 1)
	turn := f.learner.recordedTurns[0]
	require.Equal(t, "s1", turn.SessionID)
	require.Equal(t, "kể về dự án của bạn", turn.Message)
	require.Equal(t, reply.Response, turn.Response)
	require.Equal(t, reply.Intent, turn.Intent)
	require.Equal(t, reply.Source, turn.Source)
}

func TestHandle_MintsSessionID(t *testing.T) {
	f := newFixture(t)

	a := f.svc.Handle(context.Background(), ChatInput{Message: "xin chào"})
	b := f.svc.Handle(context.Background(), ChatInput{Message: "xin chào"})

	require.NotEmpty(t, a.SessionID)
	require.NotEmpty(t, b.SessionID)
	require.NotEqual(t, a.SessionID, b.SessionID)
}

func TestHandle_TruncatesLongMessages(t *testing.T) {
	f := newFixture(t)
	f.svc.maxMessageLen = 10

	long := "kể về dự án " + strings.Repeat("x", 100)
	f.svc.Handle(context.Background(), ChatInput{Message: long, SessionID: "s1"})

	require.Len(t, f.learner.recordedTurns, 1)
	require.Len(t, []rune(f.learner.recordedTurns[0].Message), 10)
}

func TestHandle_TotalOverArbitraryInput(t *testing.T) {
	cases := []struct {
		name    string
		message string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n  "},
		{"emoji only", "🤖🚀✨"},
		{"very long", strings.Repeat("xà phòng ", 1250)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			reply := f.svc.Handle(context.Background(), ChatInput{Message: tc.message, SessionID: "s1"})

			require.NotEmpty(t, reply.Response)
			require.NotEmpty(t, reply.Intent)
			require.NotEmpty(t, reply.Source)
			require.Equal(t, "s1", reply.SessionID)
			require.GreaterOrEqual(t, reply.Confidence, 0.0)
			require.LessOrEqual(t, reply.Confidence, 1.0)
		})
	}
}

func TestHandle_ResponderPanicFallsBackPerIntent(t *testing.T) {
	f := newFixture(t)
	f.resp.panics = true

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Equal(t, intent.Projects, reply.Intent)
	require.Equal(t, domain.SourceFallback, reply.Source)
	require.Equal(t, bank.Fallback(intent.Projects), reply.Response)
	require.Equal(t, "s1", reply.SessionID)
}

func TestHandle_ClassifierPanicDegradesToErrorFallback(t *testing.T) {
	f := newFixture(t)
	log := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	svc, err := NewChatService(panickyClassifier{}, f.resp, cache.New(0, 0), f.learner, f.queue, log, 0)
	require.NoError(t, err)

	reply := svc.Handle(context.Background(), ChatInput{Message: "xin chào", SessionID: "s1"})

	require.Equal(t, domain.SourceErrorFallback, reply.Source)
	require.Equal(t, intent.Default, reply.Intent)
	require.Zero(t, reply.Confidence)
	require.NotEmpty(t, reply.Response)
	require.Equal(t, "s1", reply.SessionID)
}

func TestHandle_DetectionErrorDoesNotBreakReply(t *testing.T) {
	f := newFixture(t)
	f.learner.detectErr = errors.New("store down")

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Equal(t, intent.Projects, reply.Intent)
	require.Equal(t, domain.SourceDirect, reply.Source)
}

func TestHandle_KnowledgeBaseErrorFallsThroughToBank(t *testing.T) {
	f := newFixture(t)
	f.learner.matchErr = errors.New("store down")

	reply := f.svc.Handle(context.Background(), ChatInput{Message: "kể về dự án của bạn", SessionID: "s1"})

	require.Equal(t, domain.SourceDirect, reply.Source)
	require.Equal(t, "câu trả lời cho projects", reply.Response)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   FeedbackInput
	}{
		{"missing conversation", FeedbackInput{MessageID: "t1", Rating: 4, FeedbackType: domain.FeedbackHelpful}},
		{"missing message", FeedbackInput{ConversationID: "s1", Rating: 4, FeedbackType: domain.FeedbackHelpful}},
		{"rating too low", FeedbackInput{ConversationID: "s1", MessageID: "t1", Rating: 0, FeedbackType: domain.FeedbackHelpful}},
		{"rating too high", FeedbackInput{ConversationID: "s1", MessageID: "t1", Rating: 6, FeedbackType: domain.FeedbackHelpful}},
		{"unknown type", FeedbackInput{ConversationID: "s1", MessageID: "t1", Rating: 4, FeedbackType: "meh"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.SubmitFeedback(context.Background(), tc.in)
			var uerr *Error
			require.ErrorAs(t, err, &uerr)
			require.Equal(t, ErrorInvalidInput, uerr.Code)
			require.Zero(t, f.learner.feedbackCalls)
		})
	}
}

func TestSubmitFeedback_Success(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitFeedback(context.Background(), FeedbackInput{
		ConversationID: " s1 ",
		MessageID:      " t1 ",
		Rating:         5,
		FeedbackType:   domain.FeedbackHelpful,
		Comment:        "rất hữu ích",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.learner.feedbackCalls)
	require.Equal(t, 5, f.learner.feedbackRating)
}

func TestSubmitFeedback_UnknownTurnMapsToNotFound(t *testing.T) {
	f := newFixture(t)
	f.learner.feedbackErr = fmt.Errorf("learning: record feedback: %w", repository.ErrNotFound)

	err := f.svc.SubmitFeedback(context.Background(), FeedbackInput{
		ConversationID: "s1", MessageID: "missing", Rating: 5, FeedbackType: domain.FeedbackHelpful,
	})
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, ErrorNotFound, uerr.Code)
}

func TestSubmitFeedback_StoreErrorMapsToInternal(t *testing.T) {
	f := newFixture(t)
	f.learner.feedbackErr = errors.New("throttled")

	err := f.svc.SubmitFeedback(context.Background(), FeedbackInput{
		ConversationID: "s1", MessageID: "t1", Rating: 2, FeedbackType: domain.FeedbackNotHelpful,
	})
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, ErrorInternal, uerr.Code)
}
