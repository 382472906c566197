package models

import (
	"regexp"
	"strings"

	apperrors "cropcare/pkg/errors"
)

// Tenant 公司（租户）
type Tenant struct {
	BaseModel
	TaxID     string `json:"tax_id" gorm:"uniqueIndex;not null;size:12"`
	Name      string `json:"name" gorm:"not null;size:200"`
	LegalName string `json:"legal_name" gorm:"size:200"`
	Country   string `json:"country" gorm:"not null;size:2"`
	Timezone  string `json:"timezone" gorm:"not null;size:64"`
	OwnerID   *uint  `json:"owner_id" gorm:"index"` // 设置后必须是本租户的 ADMIN
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

const (
	DefaultCountry  = "CL"
	DefaultTimezone = "America/Santiago"
	TaxIDMaxLength  = 12
)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// NormalizeTaxID 去空格并转大写
func NormalizeTaxID(taxID string) string {
	return strings.ToUpper(strings.TrimSpace(taxID))
}

// Normalize 规范化字段并补默认值
func (t *Tenant) Normalize() {
	t.TaxID = NormalizeTaxID(t.TaxID)
	t.Name = strings.TrimSpace(t.Name)
	t.LegalName = strings.TrimSpace(t.LegalName)
	t.Country = strings.ToUpper(strings.TrimSpace(t.Country))
	if t.Country == "" {
		t.Country = DefaultCountry
	}
	if t.Timezone == "" {
		t.Timezone = DefaultTimezone
	}
}

// Validate 字段校验，调用前应先 Normalize
func (t *Tenant) Validate() error {
	if t.TaxID == "" {
		return apperrors.Validation("税号不能为空")
	}
	if len(t.TaxID) > TaxIDMaxLength {
		return apperrors.Validationf("税号最多 %d 个字符", TaxIDMaxLength)
	}
	if t.Name == "" {
		return apperrors.Validation("名称不能为空")
	}
	if !countryPattern.MatchString(t.Country) {
		return apperrors.Validation("国家必须是 ISO 3166-1 两位代码")
	}
	return nil
}
