package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository.
type CampaignRepo struct {
	api   API
	table string
}

// NewCampaignRepo creates a campaign repository on table.
func NewCampaignRepo(api API, table string) *CampaignRepo {
	return &CampaignRepo{api: api, table: table}
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal campaign: %w", err)
	}
	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(campaignId)"),
	})
	if err != nil {
		return fmt.Errorf("put campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("campaignId", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if out.Item == nil {
		return nil, campaign.ErrNotFound
	}
	var c domain.Campaign
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal campaign: %w", err)
	}
	return &c, nil
}

// List scans the table and returns the newest campaigns first.
func (r *CampaignRepo) List(ctx context.Context, limit int) ([]domain.Campaign, error) {
	var all []domain.Campaign
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan campaigns: %w", err)
		}
		var page []domain.Campaign
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal campaigns: %w", err)
		}
		all = append(all, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// UpdateStatus is a conditional write on the current status.
func (r *CampaignRepo) UpdateStatus(ctx context.Context, id string, from domain.CampaignStatus, u campaign.StatusUpdate) error {
	sets := []string{"#status = :to", "updatedAt = :at"}
	var removes []string
	values := map[string]any{
		":to":   u.To,
		":from": from,
		":at":   u.At,
	}
	if u.StartedAt != nil {
		sets = append(sets, "startedAt = :startedAt")
		values[":startedAt"] = *u.StartedAt
	}
	if u.PausedAt != nil {
		sets = append(sets, "pausedAt = :pausedAt")
		values[":pausedAt"] = *u.PausedAt
	}
	if u.CompletedAt != nil {
		sets = append(sets, "completedAt = :completedAt")
		values[":completedAt"] = *u.CompletedAt
	}
	if u.PauseReason != nil {
		if *u.PauseReason == "" {
			removes = append(removes, "pauseReason")
		} else {
			sets = append(sets, "pauseReason = :reason")
			values[":reason"] = *u.PauseReason
		}
	}
	if u.TotalRecipients != nil {
		sets = append(sets, "totalRecipients = :total")
		values[":total"] = *u.TotalRecipients
	}

	expr := "SET " + strings.Join(sets, ", ")
	if len(removes) > 0 {
		expr += " REMOVE " + strings.Join(removes, ", ")
	}
	av, err := marshalValues(values)
	if err != nil {
		return err
	}

	_, err = r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       stringKey("campaignId", id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(campaignId) AND #status = :from"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: av,
	})
	if isConditionFailed(err) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return campaign.ErrStatusConflict
	}
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return nil
}

// IncrementCounters uses ADD so concurrent increments never lose updates.
func (r *CampaignRepo) IncrementCounters(ctx context.Context, id string, sent, failed int) error {
	av, err := marshalValues(map[string]any{":sent": sent, ":failed": failed})
	if err != nil {
		return err
	}
	_, err = r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       stringKey("campaignId", id),
		UpdateExpression:          aws.String("ADD sentCount :sent, failedCount :failed"),
		ConditionExpression:       aws.String("attribute_exists(campaignId)"),
		ExpressionAttributeValues: av,
	})
	if isConditionFailed(err) {
		return campaign.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("increment campaign counters: %w", err)
	}
	return nil
}

func marshalValues(values map[string]any) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(values))
	for k, v := range values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}
