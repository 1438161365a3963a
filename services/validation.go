package services

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	hasNumber  = regexp.MustCompile(`[0-9]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasSpecial = regexp.MustCompile(`[!@#$%^&*]`)
)

// newValidator создает validator с правилом "password"
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return hasNumber.MatchString(p) && hasUpper.MatchString(p) && hasLower.MatchString(p) && hasSpecial.MatchString(p)
	})
	return v
}
