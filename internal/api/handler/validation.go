package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/d60-Lab/eventhub/internal/model"
)

var (
	validationOnce sync.Once
	trans          ut.Translator
)

// RegisterValidators 注册 event_category / user_type 标签、json 字段名和英文错误文案。
// gin 的校验器是全局的，只注册一次。
func RegisterValidators() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
			return model.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("user_type", func(fl validator.FieldLevel) bool {
			return model.UserType(fl.Field().String()).Valid()
		})

		locale := en.New()
		trans, _ = ut.New(locale, locale).GetTranslator("en")
		if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
			trans = nil
			return
		}
		registerMessage(v, "event_category", "{0} must be one of grant, internship, event, olympiad, course")
		registerMessage(v, "user_type", "{0} must be one of schoolchild, student, other")
	})
}

func registerMessage(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		})
}

// fieldErrors 把 binding 校验错误整理成 字段 → 文案列表；不是校验错误时返回 nil
func fieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if trans != nil {
			msg = fe.Translate(trans)
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}
