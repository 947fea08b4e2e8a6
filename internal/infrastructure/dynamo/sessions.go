package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/maapaap/api/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the sessions table.
// PK: user_id, SK: token_hash — one row per live bearer token, so a user may
// hold any number of concurrent device sessions.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, userID, tokenHash string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldUserID, userID, fieldTokenHash, tokenHash),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the session row. Deleting a non-existent row is not an
// error, so revocation is idempotent.
func (r *SessionRepo) Delete(ctx context.Context, userID, tokenHash string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldUserID, userID, fieldTokenHash, tokenHash),
	})
	return err
}

// DeleteExpired removes all rows whose expiry is in the past.
// Safe to run concurrently and repeatedly.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return deleteExpiredByScan(ctx, r.client, r.tableName, now, func(item map[string]types.AttributeValue) map[string]types.AttributeValue {
		uid, ok1 := item[fieldUserID].(*types.AttributeValueMemberS)
		th, ok2 := item[fieldTokenHash].(*types.AttributeValueMemberS)
		if !ok1 || !ok2 {
			return nil
		}
		return compositeKey(fieldUserID, uid.Value, fieldTokenHash, th.Value)
	})
}

// deleteExpiredByScan pages through a table, collecting the primary key of
// every row with expires_at < now and deleting them one by one. keyOf maps a
// scanned item to its full primary key (nil to skip a malformed item).
func deleteExpiredByScan(
	ctx context.Context,
	client *dynamodb.Client,
	tableName string,
	now time.Time,
	keyOf func(map[string]types.AttributeValue) map[string]types.AttributeValue,
) (int, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(tableName),
		FilterExpression:         aws.String("#exp < :now"),
		ExpressionAttributeNames: map[string]string{"#exp": fieldExpiresAt},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	}
	deleted := 0
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return deleted, err
		}
		for _, item := range out.Items {
			key := keyOf(item)
			if key == nil {
				continue
			}
			if _, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(tableName),
				Key:       key,
			}); err != nil {
				return deleted, err
			}
			deleted++
		}
		if out.LastEvaluatedKey == nil {
			return deleted, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
