package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/streetbite/vendorhub/internal/config"
)

// SchemaAPI is the subset of the DynamoDB client used to create tables.
type SchemaAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
	ListTables(ctx context.Context, in *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// TableSpec describes one table. SortKey and TTLAttribute are optional.
type TableSpec struct {
	Name         string
	PartitionKey string
	SortKey      string
	TTLAttribute string
}

// Tables returns the table layout for the configured table names.
func Tables(c config.StorageConfig) []TableSpec {
	return []TableSpec{
		{Name: c.SessionsTable, PartitionKey: "id", TTLAttribute: "ttl"},
		{Name: c.AdminsTable, PartitionKey: "username"},
		{Name: c.CampaignsTable, PartitionKey: "campaignId"},
		{Name: c.RecipientsTable, PartitionKey: "campaignId", SortKey: "phone"},
		{Name: c.TemplatesTable, PartitionKey: "templateId"},
	}
}

// EnsureResult reports what EnsureTable did.
type EnsureResult string

const (
	TableCreated EnsureResult = "created"
	TableExists  EnsureResult = "exists"
)

// EnsureTable creates the table on demand (pay-per-request billing) and
// enables TTL when a TTL attribute is named. An existing table is left
// as it is.
func EnsureTable(ctx context.Context, api SchemaAPI, spec TableSpec) (EnsureResult, error) {
	attrs := []types.AttributeDefinition{{AttributeName: aws.String(spec.PartitionKey), AttributeType: types.ScalarAttributeTypeS}}
	keys := []types.KeySchemaElement{{AttributeName: aws.String(spec.PartitionKey), KeyType: types.KeyTypeHash}}
	if spec.SortKey != "" {
		attrs = append(attrs, types.AttributeDefinition{AttributeName: aws.String(spec.SortKey), AttributeType: types.ScalarAttributeTypeS})
		keys = append(keys, types.KeySchemaElement{AttributeName: aws.String(spec.SortKey), KeyType: types.KeyTypeRange})
	}

	_, err := api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(spec.Name),
		AttributeDefinitions: attrs,
		KeySchema:            keys,
		BillingMode:          types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return TableExists, nil
	}
	if err != nil {
		return "", fmt.Errorf("create table %s: %w", spec.Name, err)
	}

	if spec.TTLAttribute != "" {
		_, err := api.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
			TableName: aws.String(spec.Name),
			TimeToLiveSpecification: &types.TimeToLiveSpecification{
				AttributeName: aws.String(spec.TTLAttribute),
				Enabled:       aws.Bool(true),
			},
		})
		if err != nil {
			return TableCreated, fmt.Errorf("enable ttl on %s: %w", spec.Name, err)
		}
	}
	return TableCreated, nil
}

// ListTables returns every table name visible to the client.
func ListTables(ctx context.Context, api SchemaAPI) ([]string, error) {
	var names []string
	var start *string
	for {
		out, err := api.ListTables(ctx, &dynamodb.ListTablesInput{ExclusiveStartTableName: start})
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			return names, nil
		}
		start = out.LastEvaluatedTableName
	}
}
