package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"portfolio-chatbot/internal/domain"
)

const (
	skPrefixTurn     = "TURN#"
	skMeta           = "META#"
	skPrefixFeedback = "FEEDBACK#"
	pkKnowledge      = "KB"
	skPrefixEntry    = "ENTRY#"
	pkPattern        = "PATTERN"
	skPrefixPattern  = "PATTERN#"

	ttlDuration = 30 * 24 * time.Hour // conversation items only
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("repository: item not found")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client wraps a DynamoDB table holding conversation state and the learned
// knowledge base.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// convPK returns the partition key for a conversation.
func convPK(sessionID string) string {
	return "CONV#" + sessionID
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// SaveTurn writes the turn and the updated conversation metadata in one
// transaction. Turns are immutable; a duplicate turn id fails the write.
func (c *Client) SaveTurn(ctx context.Context, turn domain.Turn, meta domain.ConversationMeta) error {
	if turn.PK == "" || turn.SK == "" {
		return errors.New("repository: SaveTurn: turn PK and SK are required")
	}
	if meta.PK == "" || meta.SK == "" {
		return errors.New("repository: SaveTurn: meta PK and SK are required")
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                turnItem(turn),
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(c.tableName),
					Item:      metaItem(meta),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

// RecordTurn assigns keys to a new turn, bumps the conversation's turn count
// and persists both in one transaction. Returns the stored turn with its
// minted id.
func (c *Client) RecordTurn(ctx context.Context, sessionID, message, response, intentTag, source string, confidence float64, responseTimeMs int64) (domain.Turn, error) {
	turns, err := c.GetConversationTurnCount(ctx, sessionID)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("repository: RecordTurn: %w", err)
	}
	turn := NewTurn(sessionID, message, response, intentTag, source, confidence, responseTimeMs)
	meta := NewConversationMeta(sessionID, turns+1)
	if err := c.SaveTurn(ctx, turn, meta); err != nil {
		return domain.Turn{}, fmt.Errorf("repository: RecordTurn: %w", err)
	}
	return turn, nil
}

// RecordFeedback builds keys for a feedback record and persists it.
func (c *Client) RecordFeedback(ctx context.Context, sessionID, turnID string, rating int, category, comment string) error {
	fb := NewFeedback(sessionID, turnID, rating, category, comment)
	if err := c.SaveFeedback(ctx, fb); err != nil {
		return fmt.Errorf("repository: RecordFeedback: %w", err)
	}
	return nil
}

// GetTurn fetches a single turn by session and turn id.
func (c *Client) GetTurn(ctx context.Context, sessionID, turnID string) (domain.Turn, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: convPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: skPrefixTurn + turnID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Turn{}, fmt.Errorf("repository: GetTurn get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Turn{}, ErrNotFound
	}
	turn, err := itemToTurn(out.Item)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("repository: GetTurn unmarshal: %w", err)
	}
	return turn, nil
}

// SetTurnHelpful flips the helpfulness flag on an existing turn. The turn
// text itself stays immutable.
func (c *Client) SetTurnHelpful(ctx context.Context, sessionID, turnID string, helpful bool) error {
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: convPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: skPrefixTurn + turnID},
		},
		UpdateExpression:    aws.String("SET helpful = :helpful"),
		ConditionExpression: aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":helpful": &types.AttributeValueMemberBOOL{Value: helpful},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return ErrNotFound
		}
		return fmt.Errorf("repository: SetTurnHelpful: %w", err)
	}
	return nil
}

// SaveFeedback persists an explicit feedback record next to its turn.
func (c *Client) SaveFeedback(ctx context.Context, fb domain.Feedback) error {
	if fb.PK == "" || fb.SK == "" {
		return errors.New("repository: SaveFeedback: PK and SK are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      feedbackItem(fb),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveFeedback: %w", err)
	}
	return nil
}

// GetConversationTurnCount returns the persisted turn count for a session, or
// zero for an unknown session.
func (c *Client) GetConversationTurnCount(ctx context.Context, sessionID string) (int, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: convPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("repository: GetConversationTurnCount get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return 0, nil
	}
	turns, err := intAttr(out.Item, "turns")
	if err != nil {
		return 0, fmt.Errorf("repository: GetConversationTurnCount decode turns: %w", err)
	}
	return turns, nil
}

// ListKnowledgeEntries returns every stored knowledge entry. They live in a
// single partition so one Query covers the whole knowledge base.
func (c *Client) ListKnowledgeEntries(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkKnowledge},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixEntry},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListKnowledgeEntries query: %w", err)
	}
	entries := make([]domain.KnowledgeEntry, 0, len(out.Items))
	for _, item := range out.Items {
		e, err := itemToKnowledgeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListKnowledgeEntries unmarshal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// PutKnowledgeEntry inserts or replaces a knowledge entry.
func (c *Client) PutKnowledgeEntry(ctx context.Context, e domain.KnowledgeEntry) error {
	if e.ID == "" {
		return errors.New("repository: PutKnowledgeEntry: id is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      knowledgeItem(e),
	})
	if err != nil {
		return fmt.Errorf("repository: PutKnowledgeEntry: %w", err)
	}
	return nil
}

// ListActivePatterns returns every active learning pattern.
func (c *Client) ListActivePatterns(ctx context.Context) ([]domain.LearningPattern, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		FilterExpression:       aws.String("active = :active"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkPattern},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixPattern},
			":active": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListActivePatterns query: %w", err)
	}
	patterns := make([]domain.LearningPattern, 0, len(out.Items))
	for _, item := range out.Items {
		p, err := itemToPattern(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListActivePatterns unmarshal: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// PutPattern inserts or replaces a learning pattern.
func (c *Client) PutPattern(ctx context.Context, p domain.LearningPattern) error {
	if p.ID == "" {
		return errors.New("repository: PutPattern: id is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      patternItem(p),
	})
	if err != nil {
		return fmt.Errorf("repository: PutPattern: %w", err)
	}
	return nil
}
