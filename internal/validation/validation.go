// Package validation wires the go-playground validator with the custom rules
// the API needs and translates violations into the ordered field/message
// list returned on 400 responses.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single field-level violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var phoneRe = regexp.MustCompile(`^[0-9+\-\s()]+$`)

// New builds a validator with the API's custom rules registered. Field names
// in violations come from the json tag.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Password must contain at least one lowercase letter, one uppercase
	// letter and one digit, in any order.
	v.RegisterValidation("passwordstrength", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})

	v.RegisterValidation("phonechars", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})

	return v
}

// Translate converts a validator error into the ordered field/message list.
// Non-validation errors produce a single generic violation.
func Translate(err error) []FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s must contain at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", e.Field(), e.Param())
	case "passwordstrength":
		return "password must contain at least one uppercase letter, one lowercase letter and one digit"
	case "phonechars":
		return "phone number is not valid"
	case "len", "number":
		if e.Field() == "zip_code" {
			return "zip code must contain 5 digits"
		}
		return fmt.Sprintf("%s is not valid", e.Field())
	default:
		return fmt.Sprintf("%s failed validation on rule '%s'", e.Field(), e.Tag())
	}
}
