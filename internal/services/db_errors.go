package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	apperrors "cropcare/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 可重试的 Postgres 错误码
var transientPgCodes = map[string]string{
	"40001": "serialization failure",
	"40P01": "deadlock detected",
	"55P03": "lock not available",
	"57014": "statement timeout",
}

// classifyDBError 锁等待、超时、死锁归为 TransientError，业务错误原样返回
func classifyDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return apperrors.Transient(msg, err)
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		if reason, ok := transientPgCodes[pgErr.Code]; ok {
			return apperrors.Transient(msg+": "+reason, err)
		}
	}
	if strings.Contains(err.Error(), "database is locked") {
		return apperrors.Transient(msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isUniqueViolation 唯一约束冲突
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

// applyTxTimeouts 为当前事务设置锁等待和语句超时，仅 Postgres 支持
func applyTxTimeouts(tx *gorm.DB, opts Options) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if opts.LockTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", opts.LockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	if opts.StatementTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	return nil
}

func lockingUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
