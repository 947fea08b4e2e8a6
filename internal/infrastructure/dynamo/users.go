package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/maapaap/api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// A companion identifiers table holds one row per claimed email/phone so
// that two concurrent creations for the same identifier cannot both win.
type UserRepo struct {
	client           *dynamodb.Client
	tableName        string
	identifiersTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, identifiersTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, identifiersTable: identifiersTable}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, "email-index", fieldEmail, email)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.queryGSI(ctx, "phone-index", fieldPhone, phone)
}

// GetByIdentifier looks a user up by the field the identifier kind names.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.User, error) {
	if kind == domain.IdentifierPhone {
		return r.GetByPhone(ctx, identifier)
	}
	return r.GetByEmail(ctx, identifier)
}

// CreateWithIdentifier writes the user row and an identifier guard row in one
// transaction. The guard put is conditional on the identifier not existing;
// if another caller claimed it first the whole transaction is cancelled and
// ErrConflict is returned, so the caller can re-fetch the winner's row.
func (r *UserRepo) CreateWithIdentifier(ctx context.Context, u *domain.User, identifier string) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      item,
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.identifiersTable),
					Item: map[string]types.AttributeValue{
						fieldIdentifier: &types.AttributeValueMemberS{Value: identifier},
						fieldUserID:     &types.AttributeValueMemberS{Value: u.UserID},
					},
					ConditionExpression: aws.String("attribute_not_exists(#id)"),
					ExpressionAttributeNames: map[string]string{
						"#id": fieldIdentifier,
					},
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("identifier already claimed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = nowRFC3339()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
