package models

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	apperrors "cropcare/pkg/errors"
)

const (
	DefaultCodeLength   = 8
	MaxCodeAttempts     = 10
	FallbackExtraLength = 6
	ManualCodeMaxLength = 16
	DefaultMaxUses      = 1
	MaxUsesLimit        = 32767
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InvitationCode 邀请码
type InvitationCode struct {
	BaseModel
	Code      string     `json:"code" gorm:"uniqueIndex;not null;size:32"`
	TenantID  uint       `json:"tenant_id" gorm:"not null;index"`
	Role      Role       `json:"role" gorm:"not null;size:20"`
	CreatedBy uint       `json:"created_by" gorm:"not null"`
	MaxUses   int        `json:"max_uses" gorm:"not null"`
	UsedCount int        `json:"used_count" gorm:"not null"` // 只在兑换事务中递增
	ExpiresAt *time.Time `json:"expires_at"`
	Revoked   bool       `json:"revoked" gorm:"not null"`
}

// TableName 表名
func (InvitationCode) TableName() string {
	return "invitation_codes"
}

// InvalidReason 按 已撤销、已过期、已用完 的顺序返回第一个失效原因，有效时返回空
func (c *InvitationCode) InvalidReason(now time.Time) apperrors.Reason {
	if c.Revoked {
		return apperrors.ReasonRevoked
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return apperrors.ReasonExpired
	}
	if c.UsedCount >= c.MaxUses {
		return apperrors.ReasonExhausted
	}
	return ""
}

// IsValid 未撤销、未过期且仍有剩余次数
func (c *InvitationCode) IsValid(now time.Time) bool {
	return c.InvalidReason(now) == ""
}

// RemainingUses 剩余可用次数
func (c *InvitationCode) RemainingUses() int {
	if c.UsedCount >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.UsedCount
}

// NormalizeCode 去空格并转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateExpiry 过期时间至少在 now+minTTL 之后，nil 表示不过期
func ValidateExpiry(expiresAt *time.Time, now time.Time, minTTL time.Duration) error {
	if expiresAt == nil {
		return nil
	}
	if expiresAt.Before(now.Add(minTTL)) {
		return apperrors.Validationf("过期时间至少要在 %s 之后", minTTL)
	}
	return nil
}

// ValidateMaxUses 1..32767
func ValidateMaxUses(maxUses int) error {
	if maxUses < 1 || maxUses > MaxUsesLimit {
		return apperrors.Validationf("max_uses 必须在 1 到 %d 之间", MaxUsesLimit)
	}
	return nil
}

// NormalizeManualCode 管理员手动指定的邀请码：字母数字，最长16位
func NormalizeManualCode(code string) (string, error) {
	code = NormalizeCode(code)
	if code == "" {
		return "", apperrors.Validation("邀请码不能为空")
	}
	if len(code) > ManualCodeMaxLength {
		return "", apperrors.Validationf("邀请码最多 %d 个字符", ManualCodeMaxLength)
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return "", apperrors.Validation("邀请码只能包含字母和数字")
		}
	}
	return code, nil
}

// GenerateCode 生成不重复的邀请码。
// 连续 MaxCodeAttempts 次冲突后返回 length+FallbackExtraLength 位的长码，不再检查唯一性。
func GenerateCode(length int, exists func(code string) (bool, error)) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	for i := 0; i < MaxCodeAttempts; i++ {
		code, err := RandomCode(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return RandomCode(length + FallbackExtraLength)
}

// RandomCode 从 [A-Z0-9] 均匀取字符
func RandomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
