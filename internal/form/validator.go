package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/testuser-console/internal/models"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDraft 表单校验未通过
var ErrInvalidDraft = errors.New("test user draft invalid")

// phoneNumberRegex 中国大陆手机号
var phoneNumberRegex = regexp.MustCompile(`^1[3-9]\d{9}$`)

var fieldLabels = map[string]string{
	"Username": "用户名称",
	"Nickname": "用户昵称",
	"Email":    "邮箱",
	"Phone":    "手机号码",
	"Gender":   "性别",
	"Avatar":   "头像",
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors 字段校验错误集合
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, item.Message)
	}
	return strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return ErrInvalidDraft
}

// Message 返回指定字段的错误信息
func (e FieldErrors) Message(field string) string {
	for _, item := range e {
		if item.Field == field {
			return item.Message
		}
	}
	return ""
}

// DraftValidator 新增/修改表单校验器
type DraftValidator struct {
	validate *validator.Validate
}

// NewDraftValidator 创建校验器并注册 cnphone 规则
func NewDraftValidator() (*DraftValidator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("cnphone", validateChinesePhone); err != nil {
		return nil, fmt.Errorf("注册验证器 'cnphone' 失败: %w", err)
	}
	return &DraftValidator{validate: v}, nil
}

// MustNewDraftValidator 同 NewDraftValidator，失败时 panic
func MustNewDraftValidator() *DraftValidator {
	v, err := NewDraftValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func validateChinesePhone(fl validator.FieldLevel) bool {
	return phoneNumberRegex.MatchString(fl.Field().String())
}

// Validate 校验表单，失败时返回 FieldErrors
func (v *DraftValidator) Validate(draft models.TestUserDraft) error {
	draft.Normalize()
	err := v.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	out := make(FieldErrors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: translate(fe),
		})
	}
	return out
}

func translate(fe validator.FieldError) string {
	label := fieldLabels[fe.StructField()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return "请输入" + label
	case "max":
		return fmt.Sprintf("%s长度不能超过%s个字符", label, fe.Param())
	case "email":
		return "请输入正确的邮箱格式"
	case "cnphone":
		return "请输入正确的手机号码格式"
	case "oneof":
		return label + "取值无效"
	default:
		return label + "格式不正确"
	}
}
