package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator owns the translator of gin's binding engine.
type Validator struct {
	trans ut.Translator
}

// New configures gin's validator engine: json tag names in messages,
// English translations and the "day" tag (YYYY-MM-DD).
func New() *Validator {
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
		_ = v.RegisterTranslation("day", trans,
			func(ut ut.Translator) error {
				return ut.Add("day", "{0} must be a date formatted YYYY-MM-DD", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T("day", fe.Field())
				return t
			},
		)
	}

	return &Validator{trans: trans}
}

// ParseError converts binding errors into a field -> message map.
// Nested fields keep their dotted path below the root struct.
func (v *Validator) ParseError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			ns := e.Namespace()

			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			msg := e.Error()
			if v.trans != nil {
				msg = e.Translate(v.trans)
			}

			if e.Tag() == "oneof" {
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			}

			errMap[ns] = msg
		}
		return errMap
	}

	errMap["body"] = "Invalid request body format. Please fix your payload."
	return errMap
}
