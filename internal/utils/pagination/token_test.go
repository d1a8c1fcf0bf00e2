package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// rawToken base64-encodes an arbitrary payload so malformed cursors can be
// constructed directly.
func rawToken(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestEncodeDecodeToken(t *testing.T) {
	// Standard values
	createdAt := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)
	token := EncodeToken(createdAt, 42)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedCreatedAt, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, createdAt, decodedCreatedAt, "Created at time should match after decode")
	assert.Equal(t, int64(42), decodedID, "ID should match after decode")

	// Zero values
	zeroToken := EncodeToken(time.Time{}, 0)
	decodedZeroTime, decodedZeroID, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero values should not return an error")
	assert.Equal(t, time.Time{}, decodedZeroTime, "Zero time should match after decode")
	assert.Equal(t, int64(0), decodedZeroID)

	// Current time
	now := time.Now().UTC()
	nowToken := EncodeToken(now, 987654321)
	decodedNowTime, decodedNowID, err := DecodeToken(nowToken)
	assert.NoError(t, err, "Decoding current time should not return an error")
	assert.True(t, now.Equal(decodedNowTime), "Current time should match after decode")
	assert.Equal(t, int64(987654321), decodedNowID)
}

func TestDecodeTokenError(t *testing.T) {
	// Invalid base64
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Missing separator
	_, _, err = DecodeToken(rawToken("only-one-field"))
	assert.Error(t, err, "Should return an error for a token without a separator")

	// Bad time component
	_, _, err = DecodeToken(rawToken("not-a-time|42"))
	assert.Error(t, err, "Should return an error for an unparseable time")

	// Bad id component
	_, _, err = DecodeToken(rawToken(time.Now().UTC().Format(time.RFC3339Nano) + "|not-an-id"))
	assert.Error(t, err, "Should return an error for an unparseable id")
}
