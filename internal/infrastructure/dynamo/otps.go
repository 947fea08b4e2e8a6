package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/maapaap/api/internal/domain"
)

// OTPRepo provides typed DynamoDB operations for the otps table.
// PK: otp_id (ULID). GSI: identifier-created_at-index, queried descending so
// the most recently issued code for an identifier comes back first.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.OneTimePasscode) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// FindLatestActive returns the most recent unused, unexpired row matching
// (identifier, code, purpose), or ErrNotFound. Rows are read newest-first off
// the GSI, so when several live rows match, the last issued one wins.
func (r *OTPRepo) FindLatestActive(ctx context.Context, identifier, code, purpose string, now time.Time) (*domain.OneTimePasscode, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("identifier-created_at-index"),
		KeyConditionExpression: aws.String("#id = :id"),
		FilterExpression:       aws.String("#p = :p AND #c = :c AND #u = :f AND #exp > :now"),
		ExpressionAttributeNames: map[string]string{
			"#id":  fieldIdentifier,
			"#p":   fieldPurpose,
			"#c":   fieldCode,
			"#u":   fieldUsed,
			"#exp": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":  &types.AttributeValueMemberS{Value: identifier},
			":p":   &types.AttributeValueMemberS{Value: purpose},
			":c":   &types.AttributeValueMemberS{Value: code},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	// The filter runs after the key read, so a page can come back empty while
	// older matching rows remain — keep paging until a match or the end.
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var o domain.OneTimePasscode
			if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
				return nil, err
			}
			return &o, nil
		}
		if out.LastEvaluatedKey == nil {
			return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkUsed flips used from false to true. The conditional expression is the
// compare-and-set that lets exactly one concurrent verifier consume a code;
// losers get ErrConflict.
func (r *OTPRepo) MarkUsed(ctx context.Context, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldOTPID, otpID),
		UpdateExpression:         aws.String("SET #u = :t"),
		ConditionExpression:      aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUsed},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("otp already consumed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// DeleteExpired removes all rows whose expiry is in the past. Native TTL
// eventually does the same; the sweep keeps the table tight in the meantime.
// Safe to run concurrently and repeatedly.
func (r *OTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return deleteExpiredByScan(ctx, r.client, r.tableName, now, func(item map[string]types.AttributeValue) map[string]types.AttributeValue {
		id, ok := item[fieldOTPID].(*types.AttributeValueMemberS)
		if !ok {
			return nil
		}
		return strKey(fieldOTPID, id.Value)
	})
}
