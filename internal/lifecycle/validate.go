package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// 枚举标签对应的词表
var vocabularies = map[string][]string{
	"alerttype":   models.AlertTypes,
	"severity":    models.Severities,
	"requesttype": models.RequestTypes,
	"priority":    models.Priorities,
	"skill":       models.Skills,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("label"); name != "" {
			return name
		}
		r := []rune(f.Name)
		r[0] = unicode.ToLower(r[0])
		return string(r)
	})
	for tag, set := range vocabularies {
		set := set
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return models.OneOf(fl.Field().String(), set)
		})
	}
	return v
}

// checkStruct 校验失败转换为 ValidationError，只报告第一个字段
func checkStruct(s interface{}) error {
	return translate(validate.Struct(s), nil)
}

func checkVar(field string, value interface{}, tag string) error {
	return translate(validate.Var(value, tag), &field)
}

func translate(err error, field *string) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apperrors.Validation("%v", err)
	}
	fe := ves[0]
	name := fe.Field()
	if field != nil {
		name = *field
	}
	return apperrors.Validation("%s", describe(name, fe))
}

func describe(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	if _, ok := vocabularies[fe.Tag()]; ok {
		return fmt.Sprintf("invalid %s %q, expected one of %s", name, fe.Value(), strings.Join(vocabularies[fe.Tag()], "|"))
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}
