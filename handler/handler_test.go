package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/usecase"
)

type stubChat struct {
	reply       domain.Reply
	feedbackErr error
	lastChat    usecase.ChatInput
	lastFb      usecase.FeedbackInput
}

func (s *stubChat) Handle(ctx context.Context, in usecase.ChatInput) domain.Reply {
	s.lastChat = in
	return s.reply
}

func (s *stubChat) SubmitFeedback(ctx context.Context, in usecase.FeedbackInput) error {
	s.lastFb = in
	return s.feedbackErr
}

func mustNewHandler(t *testing.T, chat ChatUseCase) *Handler {
	t.Helper()
	h, err := NewHandler(chat)
	require.NoError(t, err)
	return h
}

func chatEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       chatPath,
		Body:       body,
	}
}

func feedbackEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPatch,
		Path:       feedbackPath,
		Body:       body,
	}
}

func TestNewHandler_NilUseCase(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_Chat_HappyPath(t *testing.T) {
	chat := &stubChat{reply: domain.Reply{
		Response:       "Đây là các dự án.",
		Intent:         "projects",
		Confidence:     0.85,
		Source:         domain.SourceDirect,
		SessionID:      "s1",
		ResponseTimeMs: 12,
	}}
	h := mustNewHandler(t, chat)

	resp, err := h.Handle(context.Background(), chatEvent(`{"message":"kể về dự án","sessionId":"s1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])

	var reply domain.Reply
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &reply))
	require.Equal(t, "Đây là các dự án.", reply.Response)
	require.Equal(t, "projects", reply.Intent)
	require.Equal(t, "s1", reply.SessionID)

	require.Equal(t, "kể về dự án", chat.lastChat.Message)
	require.Equal(t, "s1", chat.lastChat.SessionID)
}

func TestHandle_Chat_OmitsEmptyActions(t *testing.T) {
	chat := &stubChat{reply: domain.Reply{Response: "ok", Intent: "greeting", SessionID: "s1"}}
	h := mustNewHandler(t, chat)

	resp, err := h.Handle(context.Background(), chatEvent(`{"message":"xin chào"}`))
	require.NoError(t, err)
	require.NotContains(t, resp.Body, "navigationAction")
	require.NotContains(t, resp.Body, "themeAction")
}

func TestHandle_Chat_IncludesThemeAction(t *testing.T) {
	chat := &stubChat{reply: domain.Reply{
		Response:    "Đã bật dark mode cho bạn! 🌙",
		Intent:      "theme_dark",
		Source:      domain.SourceThemeDirect,
		SessionID:   "s1",
		ThemeAction: domain.ThemeDark,
	}}
	h := mustNewHandler(t, chat)

	resp, err := h.Handle(context.Background(), chatEvent(`{"message":"bật dark mode"}`))
	require.NoError(t, err)
	require.Contains(t, resp.Body, `"themeAction":"dark"`)
}

func TestHandle_Chat_MalformedJSON(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	resp, err := h.Handle(context.Background(), chatEvent(`{"message":`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, resp.Body, string(usecase.ErrorInvalidInput))
}

func TestHandle_Feedback_HappyPath(t *testing.T) {
	chat := &stubChat{}
	h := mustNewHandler(t, chat)

	resp, err := h.Handle(context.Background(), feedbackEvent(`{"conversationId":"s1","messageId":"t1","rating":5,"feedbackType":"helpful","comment":"hay"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Body, `"ok":true`)

	require.Equal(t, "s1", chat.lastFb.ConversationID)
	require.Equal(t, "t1", chat.lastFb.MessageID)
	require.Equal(t, 5, chat.lastFb.Rating)
	require.Equal(t, "helpful", chat.lastFb.FeedbackType)
}

func TestHandle_Feedback_MalformedJSON(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	resp, err := h.Handle(context.Background(), feedbackEvent(`not json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandle_Feedback_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "rating_out_of_range"}, http.StatusBadRequest},
		{"not found", &usecase.Error{Code: usecase.ErrorNotFound, Reason: "turn_not_found"}, http.StatusNotFound},
		{"internal", &usecase.Error{Code: usecase.ErrorInternal, Reason: "feedback_store_error"}, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := mustNewHandler(t, &stubChat{feedbackErr: tc.err})
			resp, err := h.Handle(context.Background(), feedbackEvent(`{"conversationId":"s1","messageId":"t1","rating":5,"feedbackType":"helpful"}`))
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       chatPath,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandle_UnknownPath(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/nope",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandle_EchoesCorrelationID(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	event := chatEvent(`{"message":"xin chào"}`)
	event.Headers = map[string]string{"x-correlation-id": "corr-123"}

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers[correlationHeader])
}

func TestHandle_MintsCorrelationID(t *testing.T) {
	h := mustNewHandler(t, &stubChat{})

	resp, err := h.Handle(context.Background(), chatEvent(`{"message":"xin chào"}`))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Headers[correlationHeader])
}
