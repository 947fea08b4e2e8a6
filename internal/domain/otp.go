package domain

// OneTimePasscode is a durable OTP record. Old rows are not deleted eagerly;
// at most one unused, unexpired row per (identifier, purpose) is considered
// valid at verification time, with most-recent-first as the tie-break.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OneTimePasscode struct {
	OTPID      string `json:"id" dynamodbav:"otp_id"`
	Identifier string `json:"identifier" dynamodbav:"identifier"`
	Code       string `json:"-" dynamodbav:"code"`
	Purpose    string `json:"purpose" dynamodbav:"purpose"`
	Used       bool   `json:"used" dynamodbav:"used"`
	CreatedAt  string `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"`
}

// PurposeLogin is the only OTP purpose issued today.
const PurposeLogin = "login"
