package errors

import (
	stderrors "errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam    = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeGone            = 410
	CodeTooManyRequests = 429
	CodeServerError     = 500
	CodeUnavailable     = 503
)

// ========== 业务错误分类 ==========

// Kind 错误类别
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation"
	KindConflict           Kind = "conflict"
	KindExpiredOrExhausted Kind = "expired_or_exhausted"
	KindConfiguration      Kind = "configuration"
	KindTransient          Kind = "transient"
	KindForbidden          Kind = "forbidden"
	KindUnauthorized       Kind = "unauthorized"
)

// Reason 邀请码失效原因
type Reason string

const (
	ReasonRevoked   Reason = "revoked"
	ReasonExpired   Reason = "expired"
	ReasonExhausted Reason = "exhausted"
)

// AppError 业务错误
type AppError struct {
	Kind    Kind
	Message string
	Reason  Reason // 仅 KindExpiredOrExhausted 使用
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同类别即视为相同，便于 errors.Is(err, errors.ErrNotFound) 判断
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrNotFound           = &AppError{Kind: KindNotFound}
	ErrValidation         = &AppError{Kind: KindValidation}
	ErrConflict           = &AppError{Kind: KindConflict}
	ErrExpiredOrExhausted = &AppError{Kind: KindExpiredOrExhausted}
	ErrConfiguration      = &AppError{Kind: KindConfiguration}
	ErrTransient          = &AppError{Kind: KindTransient}
	ErrForbidden          = &AppError{Kind: KindForbidden}
	ErrUnauthorized       = &AppError{Kind: KindUnauthorized}
)

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// ExpiredOrExhausted 邀请码不可用（已撤销/已过期/已用完）
func ExpiredOrExhausted(reason Reason) *AppError {
	return &AppError{Kind: KindExpiredOrExhausted, Message: "邀请码已失效", Reason: reason}
}

// Configuration 部署或种子数据缺陷，不是调用方的错误
func Configuration(message string, err error) *AppError {
	return &AppError{Kind: KindConfiguration, Message: message, Err: err}
}

// Transient 锁等待或超时，可安全重试
func Transient(message string, err error) *AppError {
	return &AppError{Kind: KindTransient, Message: message, Err: err}
}

// KindOf 返回错误类别，非 AppError 返回空字符串
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// ReasonOf 返回邀请码失效原因
func ReasonOf(err error) Reason {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}

// IsKind 判断错误类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf 将错误类别映射为返回码
func CodeOf(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return CodeNotFound
	case KindValidation:
		return CodeInvalidParam
	case KindConflict:
		return CodeConflict
	case KindExpiredOrExhausted:
		return CodeGone
	case KindTransient:
		return CodeUnavailable
	case KindForbidden:
		return CodeForbidden
	case KindUnauthorized:
		return CodeUnauthorized
	default:
		return CodeServerError
	}
}
