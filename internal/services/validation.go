package services

import (
	stderrors "errors"
	"strings"

	apperrors "cropcare/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct 按 validate 标签校验参数，返回第一条错误
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return apperrors.Validationf("%s 不能为空", field)
		case "email":
			return apperrors.Validationf("%s 不是有效的邮箱", field)
		case "min", "max":
			return apperrors.Validationf("%s 不满足 %s=%s", field, fe.Tag(), fe.Param())
		default:
			return apperrors.Validationf("%s 格式无效", field)
		}
	}
	return apperrors.Validation(err.Error())
}
