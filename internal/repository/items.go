package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"portfolio-chatbot/internal/domain"
)

// NewTurn constructs a Turn with PK/SK/TTL set from the session id and a
// fresh turn id.
func NewTurn(sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) domain.Turn {
	id := uuid.NewString()
	now := time.Now().UTC()
	return domain.Turn{
		PK:             convPK(sessionID),
		SK:             skPrefixTurn + id,
		ID:             id,
		SessionID:      sessionID,
		Message:        message,
		Response:       response,
		Intent:         intentTag,
		Confidence:     confidence,
		Source:         source,
		ResponseTimeMs: responseTimeMs,
		CreatedAt:      now,
		TTL:            ttlValue(),
	}
}

// NewConversationMeta constructs a ConversationMeta record.
func NewConversationMeta(sessionID string, turns int) domain.ConversationMeta {
	return domain.ConversationMeta{
		PK:           convPK(sessionID),
		SK:           skMeta,
		SessionID:    sessionID,
		LastActivity: time.Now().UTC().Format(time.RFC3339),
		Turns:        turns,
		TTL:          ttlValue(),
	}
}

// NewFeedback constructs a Feedback record keyed next to its turn.
func NewFeedback(sessionID, turnID string, rating int, category, comment string) domain.Feedback {
	return domain.Feedback{
		PK:        convPK(sessionID),
		SK:        skPrefixFeedback + turnID,
		SessionID: sessionID,
		TurnID:    turnID,
		Rating:    rating,
		Category:  category,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
		TTL:       ttlValue(),
	}
}

// NewKnowledgeEntryID mints an id for a knowledge entry.
func NewKnowledgeEntryID() string {
	return uuid.NewString()
}

// NewPatternID mints an id for a learning pattern.
func NewPatternID() string {
	return uuid.NewString()
}

func turnItem(turn domain.Turn) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: turn.PK},
		"SK":         &types.AttributeValueMemberS{Value: turn.SK},
		"id":         &types.AttributeValueMemberS{Value: turn.ID},
		"sessionId":  &types.AttributeValueMemberS{Value: turn.SessionID},
		"message":    &types.AttributeValueMemberS{Value: turn.Message},
		"response":   &types.AttributeValueMemberS{Value: turn.Response},
		"intent":     &types.AttributeValueMemberS{Value: turn.Intent},
		"confidence": numAttr(turn.Confidence),
		"source":     &types.AttributeValueMemberS{Value: turn.Source},
		"responseMs": &types.AttributeValueMemberN{Value: strconv.FormatInt(turn.ResponseTimeMs, 10)},
		"createdAt":  &types.AttributeValueMemberS{Value: turn.CreatedAt.Format(time.RFC3339Nano)},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(turn.TTL, 10)},
	}
	if turn.Helpful != nil {
		item["helpful"] = &types.AttributeValueMemberBOOL{Value: *turn.Helpful}
	}
	return item
}

func itemToTurn(item map[string]types.AttributeValue) (domain.Turn, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Turn{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Turn{}, err
	}
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.Turn{}, err
	}
	message, err := strAttr(item, "message")
	if err != nil {
		return domain.Turn{}, err
	}
	sessionID, _ := strAttr(item, "sessionId")
	response, _ := strAttr(item, "response")
	intentTag, _ := strAttr(item, "intent")
	source, _ := strAttr(item, "source")
	confidence, _ := floatAttr(item, "confidence")
	responseMs, _ := intAttr(item, "responseMs")

	turn := domain.Turn{
		PK:             pk,
		SK:             sk,
		ID:             id,
		SessionID:      sessionID,
		Message:        message,
		Response:       response,
		Intent:         intentTag,
		Confidence:     confidence,
		Source:         source,
		ResponseTimeMs: int64(responseMs),
	}
	if v, ok := item["helpful"]; ok {
		if b, ok := v.(*types.AttributeValueMemberBOOL); ok {
			turn.Helpful = &b.Value
		}
	}
	if raw, err := strAttr(item, "createdAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			turn.CreatedAt = ts
		}
	}
	return turn, nil
}

func metaItem(meta domain.ConversationMeta) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: meta.PK},
		"SK":           &types.AttributeValueMemberS{Value: meta.SK},
		"sessionId":    &types.AttributeValueMemberS{Value: meta.SessionID},
		"lastActivity": &types.AttributeValueMemberS{Value: meta.LastActivity},
		"turns":        &types.AttributeValueMemberN{Value: strconv.Itoa(meta.Turns)},
		"ttl":          &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.TTL, 10)},
	}
}

func feedbackItem(fb domain.Feedback) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: fb.PK},
		"SK":        &types.AttributeValueMemberS{Value: fb.SK},
		"sessionId": &types.AttributeValueMemberS{Value: fb.SessionID},
		"turnId":    &types.AttributeValueMemberS{Value: fb.TurnID},
		"rating":    &types.AttributeValueMemberN{Value: strconv.Itoa(fb.Rating)},
		"category":  &types.AttributeValueMemberS{Value: fb.Category},
		"comment":   &types.AttributeValueMemberS{Value: fb.Comment},
		"createdAt": &types.AttributeValueMemberS{Value: fb.CreatedAt.Format(time.RFC3339Nano)},
		"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(fb.TTL, 10)},
	}
}

func knowledgeItem(e domain.KnowledgeEntry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: pkKnowledge},
		"SK":          &types.AttributeValueMemberS{Value: skPrefixEntry + e.ID},
		"id":          &types.AttributeValueMemberS{Value: e.ID},
		"question":    &types.AttributeValueMemberS{Value: e.Question},
		"answer":      &types.AttributeValueMemberS{Value: e.Answer},
		"intent":      &types.AttributeValueMemberS{Value: e.Intent},
		"confidence":  numAttr(e.Confidence),
		"usageCount":  &types.AttributeValueMemberN{Value: strconv.Itoa(e.UsageCount)},
		"successRate": numAttr(e.SuccessRate),
		"source":      &types.AttributeValueMemberS{Value: e.Source},
		"active":      &types.AttributeValueMemberBOOL{Value: e.Active},
		"createdAt":   &types.AttributeValueMemberS{Value: e.CreatedAt.Format(time.RFC3339Nano)},
		"updatedAt":   &types.AttributeValueMemberS{Value: e.UpdatedAt.Format(time.RFC3339Nano)},
	}
}

func itemToKnowledgeEntry(item map[string]types.AttributeValue) (domain.KnowledgeEntry, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.KnowledgeEntry{}, err
	}
	question, err := strAttr(item, "question")
	if err != nil {
		return domain.KnowledgeEntry{}, err
	}
	answer, err := strAttr(item, "answer")
	if err != nil {
		return domain.KnowledgeEntry{}, err
	}
	intentTag, _ := strAttr(item, "intent")
	confidence, _ := floatAttr(item, "confidence")
	usageCount, _ := intAttr(item, "usageCount")
	successRate, _ := floatAttr(item, "successRate")
	source, _ := strAttr(item, "source")

	e := domain.KnowledgeEntry{
		ID:          id,
		Question:    question,
		Answer:      answer,
		Intent:      intentTag,
		Confidence:  confidence,
		UsageCount:  usageCount,
		SuccessRate: successRate,
		Source:      source,
	}
	if v, ok := item["active"]; ok {
		if b, ok := v.(*types.AttributeValueMemberBOOL); ok {
			e.Active = b.Value
		}
	}
	if raw, err := strAttr(item, "createdAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.CreatedAt = ts
		}
	}
	if raw, err := strAttr(item, "updatedAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.UpdatedAt = ts
		}
	}
	return e, nil
}

func patternItem(p domain.LearningPattern) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: pkPattern},
		"SK":           &types.AttributeValueMemberS{Value: skPrefixPattern + p.ID},
		"id":           &types.AttributeValueMemberS{Value: p.ID},
		"keywords":     stringListAttr(p.Keywords),
		"intent":       &types.AttributeValueMemberS{Value: p.Intent},
		"successCount": &types.AttributeValueMemberN{Value: strconv.Itoa(p.SuccessCount)},
		"attemptCount": &types.AttributeValueMemberN{Value: strconv.Itoa(p.AttemptCount)},
		"examples":     stringListAttr(p.Examples),
		"active":       &types.AttributeValueMemberBOOL{Value: p.Active},
		"createdAt":    &types.AttributeValueMemberS{Value: p.CreatedAt.Format(time.RFC3339Nano)},
		"updatedAt":    &types.AttributeValueMemberS{Value: p.UpdatedAt.Format(time.RFC3339Nano)},
	}
}

func itemToPattern(item map[string]types.AttributeValue) (domain.LearningPattern, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.LearningPattern{}, err
	}
	intentTag, err := strAttr(item, "intent")
	if err != nil {
		return domain.LearningPattern{}, err
	}
	keywords, err := stringListFromAttr(item, "keywords")
	if err != nil {
		return domain.LearningPattern{}, err
	}
	examples, _ := stringListFromAttr(item, "examples")
	successCount, _ := intAttr(item, "successCount")
	attemptCount, _ := intAttr(item, "attemptCount")

	p := domain.LearningPattern{
		ID:           id,
		Keywords:     keywords,
		Intent:       intentTag,
		SuccessCount: successCount,
		AttemptCount: attemptCount,
		Examples:     examples,
	}
	if v, ok := item["active"]; ok {
		if b, ok := v.(*types.AttributeValueMemberBOOL); ok {
			p.Active = b.Value
		}
	}
	if raw, err := strAttr(item, "createdAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.CreatedAt = ts
		}
	}
	if raw, err := strAttr(item, "updatedAt"); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.UpdatedAt = ts
		}
	}
	return p, nil
}

func numAttr(f float64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'f', -1, 64)}
}

func stringListAttr(values []string) types.AttributeValue {
	members := make([]types.AttributeValue, 0, len(values))
	for _, v := range values {
		members = append(members, &types.AttributeValueMemberS{Value: v})
	}
	return &types.AttributeValueMemberL{Value: members}
}

func stringListFromAttr(item map[string]types.AttributeValue, key string) ([]string, error) {
	v, ok := item[key]
	if !ok {
		return nil, fmt.Errorf("repository: missing attribute %q", key)
	}
	list, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	out := make([]string, 0, len(list.Value))
	for _, m := range list.Value {
		s, ok := m.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("repository: attribute %q has a non-string member", key)
		}
		out = append(out, s.Value)
	}
	return out, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func floatAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
