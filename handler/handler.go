package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"portfolio-chatbot/internal/domain"
	"portfolio-chatbot/internal/usecase"
)

const (
	chatPath     = "/chat"
	feedbackPath = "/chat/feedback"

	correlationHeader = "X-Correlation-Id"
)

// ChatUseCase is the service surface the handler dispatches to.
type ChatUseCase interface {
	Handle(ctx context.Context, in usecase.ChatInput) domain.Reply
	SubmitFeedback(ctx context.Context, in usecase.FeedbackInput) error
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type feedbackRequest struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Rating         int    `json:"rating"`
	FeedbackType   string `json:"feedbackType"`
	Comment        string `json:"comment"`
}

type feedbackResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler routes API Gateway events to the chat service.
type Handler struct {
	chat ChatUseCase
	log  *slog.Logger
}

// NewHandler creates a Handler for the given use case.
func NewHandler(chat ChatUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{chat: chat, log: slog.Default()}, nil
}

// Handle is the Lambda entrypoint for API Gateway proxy events.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)
	log := h.log.With("correlationId", corrID, "method", event.HTTPMethod, "path", event.Path)

	switch {
	case event.HTTPMethod == http.MethodPost && event.Path == chatPath:
		return h.handleChat(ctx, event, corrID, log), nil
	case event.HTTPMethod == http.MethodPatch && event.Path == feedbackPath:
		return h.handleFeedback(ctx, event, corrID, log), nil
	case event.Path == chatPath || event.Path == feedbackPath:
		return respond(http.StatusMethodNotAllowed, corrID, errorResponse{Error: "METHOD_NOT_ALLOWED"}), nil
	default:
		return respond(http.StatusNotFound, corrID, errorResponse{Error: "NOT_FOUND"}), nil
	}
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, corrID string, log *slog.Logger) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, corrID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_json",
		})
	}

	reply := h.chat.Handle(ctx, usecase.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	log.Info("chat handled",
		"session", reply.SessionID,
		"intent", reply.Intent,
		"source", reply.Source,
		"responseMs", reply.ResponseTimeMs,
	)
	return respond(http.StatusOK, corrID, reply)
}

func (h *Handler) handleFeedback(ctx context.Context, event events.APIGatewayProxyRequest, corrID string, log *slog.Logger) events.APIGatewayProxyResponse {
	var req feedbackRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, corrID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_json",
		})
	}

	err := h.chat.SubmitFeedback(ctx, usecase.FeedbackInput{
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		Rating:         req.Rating,
		FeedbackType:   req.FeedbackType,
		Comment:        req.Comment,
	})
	if err != nil {
		status, body := mapError(err)
		log.Warn("feedback rejected", "status", status, "err", err)
		return respond(status, corrID, body)
	}
	log.Info("feedback recorded", "conversation", req.ConversationID, "message", req.MessageID, "rating", req.Rating)
	return respond(http.StatusOK, corrID, feedbackResponse{OK: true})
}

// mapError translates use-case error codes to HTTP statuses.
func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		switch ucErr.Code {
		case usecase.ErrorInvalidInput:
			return http.StatusBadRequest, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
		case usecase.ErrorNotFound:
			return http.StatusNotFound, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
		default:
			return http.StatusInternalServerError, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
}

func respond(status int, corrID string, body any) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		// Marshal of our own response types cannot realistically fail;
		// degrade to a bare error body.
		encoded = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(encoded),
	}
}

// correlationID returns the inbound correlation id, matched
// case-insensitively, or mints a new one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return uuid.NewString()
}
