package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("snowflake", isSnowflake); err != nil {
		return nil, nil, fmt.Errorf("failed to register snowflake validation: %w", err)
	}
	if err := validate.RegisterTranslation("snowflake", trans, func(ut ut.Translator) error {
		return ut.Add("snowflake", "{0} must be a numeric platform ID", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("snowflake", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register snowflake translation: %w", err)
	}

	return validate, trans, nil
}

// isSnowflake accepts platform IDs: non-empty strings of decimal digits.
func isSnowflake(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" {
		return false
	}

	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
