package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIs(t *testing.T) {
	err := fmt.Errorf("redeem: %w", ExpiredOrExhausted(ReasonRevoked))

	assert.True(t, stderrors.Is(err, ErrExpiredOrExhausted))
	assert.True(t, stderrors.Is(err, &AppError{Kind: KindExpiredOrExhausted, Reason: ReasonRevoked}))
	assert.False(t, stderrors.Is(err, &AppError{Kind: KindExpiredOrExhausted, Reason: ReasonExpired}))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, ReasonRevoked, ReasonOf(err))
}

func TestKindAndCode(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
		code int
	}{
		{NotFound("邀请码无效"), KindNotFound, CodeNotFound},
		{Validation("bad"), KindValidation, CodeInvalidParam},
		{Conflict("other tenant"), KindConflict, CodeConflict},
		{ExpiredOrExhausted(ReasonExhausted), KindExpiredOrExhausted, CodeGone},
		{Configuration("role missing", nil), KindConfiguration, CodeServerError},
		{Transient("lock timeout", stderrors.New("55P03")), KindTransient, CodeUnavailable},
		{stderrors.New("plain"), "", CodeServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
		assert.Equal(t, tc.code, CodeOf(tc.err), tc.err.Error())
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "邀请码已失效 (expired)", ExpiredOrExhausted(ReasonExpired).Error())
	assert.Equal(t, "lock timeout: boom", Transient("lock timeout", stderrors.New("boom")).Error())
}
