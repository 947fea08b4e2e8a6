package domain

import "time"

type User struct {
	UserID string `json:"id" dynamodbav:"user_id"`
	Name   string `json:"name" dynamodbav:"name"`
	// email/phone are GSI keys; omitempty keeps users created with only one
	// identifier out of the other index (empty strings are not legal GSI keys).
	Email         string    `json:"email" dynamodbav:"email,omitempty"`
	Phone         string    `json:"phone" dynamodbav:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// IdentifierKind tells which user field an OTP identifier refers to.
type IdentifierKind string

const (
	IdentifierEmail IdentifierKind = "email"
	IdentifierPhone IdentifierKind = "phone"
)

func (k IdentifierKind) Valid() bool {
	return k == IdentifierEmail || k == IdentifierPhone
}
