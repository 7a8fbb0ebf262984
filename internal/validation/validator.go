// Package validation validates request payloads with go-playground/validator
// and enforces the free-text content policy for application messages.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	rules := map[string]validator.Func{
		"slug": func(fl validator.FieldLevel) bool {
			if fl.Field().String() == "" {
				// left to 'required'
				return true
			}

			return slugRe.MatchString(fl.Field().String())
		},
		"no_contact_info": func(fl validator.FieldLevel) bool {
			return DetectContactInfo(fl.Field().String()) == ""
		},
	}

	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register custom validation %q: %v", tag, err))
		}
	}
}

// ValidationError holds one message per failed field.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return strings.Join(v.Errors, ", ")
}

// ValidateStruct runs the tag based rules on s and returns a *ValidationError
// with readable messages.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: []string{err.Error()}}
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		var message string

		switch fe.Tag() {
		case "slug":
			message = fmt.Sprintf("field '%s' must contain only lowercase letters, numbers, hyphens, and underscores", fe.Field())
		case "no_contact_info":
			message = fmt.Sprintf("field '%s' must not contain contact information", fe.Field())
		case "oneof":
			message = fmt.Sprintf("field '%s' must be one of [%s]", fe.Field(), fe.Param())
		default:
			message = fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		}

		messages = append(messages, message)
	}

	return &ValidationError{Errors: messages}
}
