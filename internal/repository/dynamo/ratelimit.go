package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/streetbite/vendorhub/internal/domain"
)

const rateLimitKeyPrefix = "ratelimit#"

// rateLimitItem shares the sessions table, keyed "ratelimit#<ip>".
type rateLimitItem struct {
	ID         string `dynamodbav:"id"`
	RecordType string `dynamodbav:"recordType"`
	domain.RateLimitRecord
}

// RateLimitStore implements ratelimit.Store on the sessions table.
type RateLimitStore struct {
	api   API
	table string
}

// NewRateLimitStore creates a rate-limit store on table.
func NewRateLimitStore(api API, table string) *RateLimitStore {
	return &RateLimitStore{api: api, table: table}
}

func (s *RateLimitStore) Get(ctx context.Context, ip string) (*domain.RateLimitRecord, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            stringKey("id", rateLimitKeyPrefix+ip),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get rate limit record: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item rateLimitItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal rate limit record: %w", err)
	}
	rec := item.RateLimitRecord
	rec.IP = ip
	return &rec, nil
}

func (s *RateLimitStore) Put(ctx context.Context, rec *domain.RateLimitRecord) error {
	item, err := attributevalue.MarshalMap(rateLimitItem{
		ID:              rateLimitKeyPrefix + rec.IP,
		RecordType:      "ratelimit",
		RateLimitRecord: *rec,
	})
	if err != nil {
		return fmt.Errorf("marshal rate limit record: %w", err)
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item})
	if err != nil {
		return fmt.Errorf("put rate limit record: %w", err)
	}
	return nil
}

func (s *RateLimitStore) Delete(ctx context.Context, ip string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       stringKey("id", rateLimitKeyPrefix+ip),
	})
	if err != nil {
		return fmt.Errorf("delete rate limit record: %w", err)
	}
	return nil
}
