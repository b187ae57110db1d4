package validator

import (
	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires project-specific validation tags.
func registerCustomRules(v *validator.Validate) error {
	// currency: uppercase 3-letter code, e.g. USD, EUR.
	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) != 3 {
			return false
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	})
}
