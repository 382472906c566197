package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	apperrors "cropcare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidReasonOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		code InvitationCode
		want apperrors.Reason
	}{
		{"valid", InvitationCode{MaxUses: 2, UsedCount: 1, ExpiresAt: &future}, ""},
		{"no expiry", InvitationCode{MaxUses: 1}, ""},
		{"revoked wins", InvitationCode{Revoked: true, MaxUses: 1, UsedCount: 1, ExpiresAt: &past}, apperrors.ReasonRevoked},
		{"expired before exhausted", InvitationCode{MaxUses: 1, UsedCount: 1, ExpiresAt: &past}, apperrors.ReasonExpired},
		{"exhausted", InvitationCode{MaxUses: 3, UsedCount: 3, ExpiresAt: &future}, apperrors.ReasonExhausted},
		{"expiry boundary is inclusive", InvitationCode{MaxUses: 1, ExpiresAt: &now}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.code.InvalidReason(now))
			assert.Equal(t, tc.want == "", tc.code.IsValid(now))
		})
	}
}

func TestExpiredCodeNeverValid(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	for used := 0; used < 3; used++ {
		c := InvitationCode{MaxUses: 5, UsedCount: used, ExpiresAt: &past}
		assert.False(t, c.IsValid(now))
	}
}

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	code, err := GenerateCode(8, func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Regexp(t, pattern, code)
}

func TestGenerateCodeFallsBackAfterCollisions(t *testing.T) {
	calls := 0
	code, err := GenerateCode(8, func(string) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, MaxCodeAttempts, calls)
	assert.Len(t, code, 8+FallbackExtraLength)
}

func TestGenerateCodePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateCode(8, func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tooSoon := now.Add(10 * time.Minute)
	ok := now.Add(15 * time.Minute)

	assert.NoError(t, ValidateExpiry(nil, now, 15*time.Minute))
	assert.NoError(t, ValidateExpiry(&ok, now, 15*time.Minute))
	err := ValidateExpiry(&tooSoon, now, 15*time.Minute)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestNormalizeManualCode(t *testing.T) {
	code, err := NormalizeManualCode("  campo2025 ")
	require.NoError(t, err)
	assert.Equal(t, "CAMPO2025", code)

	_, err = NormalizeManualCode("ABC-123")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = NormalizeManualCode("ABCDEFGHIJKLMNOPQ")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = NormalizeManualCode("   ")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestValidateMaxUses(t *testing.T) {
	assert.NoError(t, ValidateMaxUses(1))
	assert.NoError(t, ValidateMaxUses(MaxUsesLimit))
	assert.Error(t, ValidateMaxUses(0))
	assert.Error(t, ValidateMaxUses(MaxUsesLimit+1))
}
