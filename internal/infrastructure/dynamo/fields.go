package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID     = "user_id"
	fieldEmail      = "email"
	fieldPhone      = "phone"
	fieldIdentifier = "identifier"
	fieldCode       = "code"
	fieldPurpose    = "purpose"
	fieldUsed       = "used"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
	fieldExpiresAt  = "expires_at"
	fieldTokenHash  = "token_hash"
	fieldOTPID      = "otp_id"
)
