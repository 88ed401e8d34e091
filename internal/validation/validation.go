package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate *validator.Validate

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

func init() {
	validate = validator.New()

	// report json field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return IsValidMobile(fl.Field().String())
	})
}

// IsValidMobile checks for a 10 digit mobile number
func IsValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by ValidateStruct when one or more fields are invalid
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validation failed")
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "mobile":
		return fmt.Sprintf("%s must be a 10 digit mobile number", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// RequireMobile validates a mobile number that must be present
func RequireMobile(field, mobile string) error {
	if err := validate.Var(mobile, "required,mobile"); err != nil {
		return &Error{Fields: []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("%s must be a 10 digit mobile number", field),
		}}}
	}
	return nil
}
