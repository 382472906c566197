package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "cropcare/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDBError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperrors.Kind
	}{
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, apperrors.KindTransient},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperrors.KindTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperrors.KindTransient},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperrors.KindTransient},
		{"wrapped lock timeout", fmt.Errorf("select: %w", &pgconn.PgError{Code: "55P03"}), apperrors.KindTransient},
		{"context deadline", context.DeadlineExceeded, apperrors.KindTransient},
		{"sqlite busy", stderrors.New("database is locked (5) (SQLITE_BUSY)"), apperrors.KindTransient},
		{"app error passes through", apperrors.Conflict("已属于其它公司"), apperrors.KindConflict},
		{"unique violation is not retryable", &pgconn.PgError{Code: "23505"}, ""},
		{"unknown", stderrors.New("boom"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyDBError(tc.err, "redeem invitation code")
			assert.Error(t, got)
			assert.Equal(t, tc.kind, apperrors.KindOf(got))
			assert.ErrorIs(t, got, tc.err)
		})
	}

	assert.NoError(t, classifyDBError(nil, "noop"))
}
