package domain

import "time"

// Session maps a (user, hashed bearer token) pair to an expiry. Only the
// sha256 digest of the token is stored; a leaked table cannot be replayed
// as Authorization headers. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Session struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	TokenHash string    `json:"-" dynamodbav:"token_hash"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
