package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Account numbers are ten digits and never start with zero.
var accountNumberPattern = regexp.MustCompile(`^[1-9][0-9]{9}$`)

// registerCustomValidations installs the account_number rule on gin's binding
// engine so malformed numbers are rejected before they reach a service.
func registerCustomValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("account_number", func(fl validator.FieldLevel) bool {
		return accountNumberPattern.MatchString(fl.Field().String())
	})
}
