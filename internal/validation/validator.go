// Package validation 包装 go-playground/validator，把约束错误转换为面向调用方的字段信息。
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"eventsite-api/internal/config"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError 描述单个字段的约束错误。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 包含一次校验中的全部字段错误，Error() 返回第一条。
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// Validator 校验请求体。联系表单消息长度的边界来自配置。
type Validator struct {
	validate *validator.Validate
	contact  config.ContactConfig
}

// New 创建 Validator 并注册自定义规则。
func New(contact config.ContactConfig) *Validator {
	v := &Validator{validate: validator.New(), contact: contact}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// 注册失败只会发生在 tag 名为空时，这里是编程错误
	if err := v.validate.RegisterValidation("basic_email", validEmail); err != nil {
		panic(err)
	}
	if err := v.validate.RegisterValidation("contact_message", v.validContactMessage); err != nil {
		panic(err)
	}
	return v
}

// Struct 校验 s。失败时返回 *Error，列出全部违反的约束。
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Message: v.message(fe),
		})
	}
	return out
}

// validEmail 要求 local@domain.tld 形状，并且能被 net/mail 原样解析，
// 以保证通过校验的地址可以直接用作 Reply-To。
func validEmail(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !emailPattern.MatchString(s) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func (v *Validator) validContactMessage(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(fl.Field().String())
	return n >= v.contact.MessageMinLength && n <= v.contact.MessageMaxLength
}

func (v *Validator) message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "basic_email":
		return "Invalid email address"
	case "contact_message":
		return fmt.Sprintf("%s must be between %d and %d characters", label, v.contact.MessageMinLength, v.contact.MessageMaxLength)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldPath 去掉顶层结构体名，例如 "ChatRequest.conversationHistory[3].role" -> "conversationHistory[3].role"。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// humanize 把 "firstName" 转换为 "First name"。
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
