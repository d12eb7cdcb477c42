package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/streetbite/vendorhub/internal/credential"
	"github.com/streetbite/vendorhub/internal/domain"
)

// AdminStore implements credential.Store on the admins table.
type AdminStore struct {
	api   API
	table string
}

// NewAdminStore creates an admin credential store on table.
func NewAdminStore(api API, table string) *AdminStore {
	return &AdminStore{api: api, table: table}
}

// Lookup returns the admin for username if it belongs to surface and is enabled.
func (s *AdminStore) Lookup(ctx context.Context, surface domain.AdminSurface, username string) (*domain.Admin, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       stringKey("username", username),
	})
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if out.Item == nil {
		return nil, credential.ErrUnknownAdmin
	}
	var a domain.Admin
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal admin: %w", err)
	}
	if a.Disabled || (a.Surface != "" && a.Surface != surface) {
		return nil, credential.ErrUnknownAdmin
	}
	return &a, nil
}

// Put stores an admin credential; used by the admin seeding command.
func (s *AdminStore) Put(ctx context.Context, a *domain.Admin) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal admin: %w", err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.table), Item: item}); err != nil {
		return fmt.Errorf("put admin: %w", err)
	}
	return nil
}
