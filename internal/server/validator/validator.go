package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	trans ut.Translator
	once  sync.Once
)

// InitValidator configures gin's validator engine to report json field names
// and English messages. Safe to call more than once.
func InitValidator() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		locale := en.New()
		uni := ut.New(locale, locale)
		trans, _ = uni.GetTranslator("en")

		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// ParseValidationError converts binding errors into a map of field to message.
// Anything that is not a validation error is reported against "body".
func ParseValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errMap["body"] = "Invalid request body format. Please fix your payload."
		return errMap
	}

	for _, e := range validationErrors {
		ns := e.Namespace()
		if i := strings.Index(ns, "."); i != -1 {
			ns = ns[i+1:]
		}

		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", capitalize(e.Field()))
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", e.Field(), strings.ReplaceAll(e.Param(), " ", ", "))
		default:
			if trans != nil {
				msg = e.Translate(trans)
			} else {
				msg = e.Error()
			}
		}

		errMap[ns] = msg
	}
	return errMap
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
