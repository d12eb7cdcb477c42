package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/service/template"
)

// TemplateRepo implements template.Repository.
type TemplateRepo struct {
	api   API
	table string
}

// NewTemplateRepo creates a template repository on table.
func NewTemplateRepo(api API, table string) *TemplateRepo {
	return &TemplateRepo{api: api, table: table}
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	return r.put(ctx, t, "attribute_not_exists(templateId)", template.ErrExists)
}

func (r *TemplateRepo) Update(ctx context.Context, t *domain.Template) error {
	return r.put(ctx, t, "attribute_exists(templateId)", template.ErrNotFound)
}

func (r *TemplateRepo) put(ctx context.Context, t *domain.Template, cond string, condErr error) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String(cond),
	})
	if isConditionFailed(err) {
		return condErr
	}
	if err != nil {
		return fmt.Errorf("put template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) Get(ctx context.Context, id string) (*domain.Template, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("templateId", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if out.Item == nil {
		return nil, template.ErrNotFound
	}
	var t domain.Template
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	return &t, nil
}

// GetByName scans for the template; the registry is small.
func (r *TemplateRepo) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	items, err := r.scan(ctx, &dynamodb.ScanInput{
		TableName:                aws.String(r.table),
		FilterExpression:         aws.String("#name = :name"),
		ExpressionAttributeNames: map[string]string{"#name": "name"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, template.ErrNotFound
	}
	return &items[0], nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]domain.Template, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.table)})
}

func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	_, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 stringKey("templateId", id),
		ConditionExpression: aws.String("attribute_exists(templateId)"),
	})
	if isConditionFailed(err) {
		return template.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) scan(ctx context.Context, in *dynamodb.ScanInput) ([]domain.Template, error) {
	var out []domain.Template
	for {
		page, err := r.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan templates: %w", err)
		}
		var items []domain.Template
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal templates: %w", err)
		}
		out = append(out, items...)
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}
