package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/streetbite/vendorhub/internal/domain"
)

// RecipientRepo implements campaign.RecipientRepository.
type RecipientRepo struct {
	api    API
	table  string
	writer *BatchWriter
}

// NewRecipientRepo creates a recipient repository on table.
func NewRecipientRepo(api API, table string) *RecipientRepo {
	return &RecipientRepo{api: api, table: table, writer: NewBatchWriter(api)}
}

func (r *RecipientRepo) PutBatch(ctx context.Context, recipients []domain.Recipient) error {
	reqs := make([]types.WriteRequest, 0, len(recipients))
	for i := range recipients {
		item, err := attributevalue.MarshalMap(&recipients[i])
		if err != nil {
			return fmt.Errorf("marshal recipient: %w", err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return r.writer.Write(ctx, r.table, reqs)
}

// ListPending queries the campaign's partition, filtering on status.
func (r *RecipientRepo) ListPending(ctx context.Context, campaignID string, limit int) ([]domain.Recipient, error) {
	var out []domain.Recipient
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(r.table),
			KeyConditionExpression:   aws.String("campaignId = :id"),
			FilterExpression:         aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{"#status": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id":      &types.AttributeValueMemberS{Value: campaignID},
				":pending": &types.AttributeValueMemberS{Value: string(domain.RecipientPending)},
			},
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("query recipients: %w", err)
		}
		var items []domain.Recipient
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal recipients: %w", err)
		}
		out = append(out, items...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		startKey = page.LastEvaluatedKey
	}
}

func (r *RecipientRepo) MarkResult(ctx context.Context, rec domain.Recipient) error {
	item, err := attributevalue.MarshalMap(&rec)
	if err != nil {
		return fmt.Errorf("marshal recipient: %w", err)
	}
	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.table), Item: item})
	if err != nil {
		return fmt.Errorf("put recipient: %w", err)
	}
	return nil
}
