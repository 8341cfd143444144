package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	// PhonePattern accepts international numbers with an optional leading '+'.
	PhonePattern = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
	// TimePattern accepts 24h HH:mm.
	TimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	PhoneFormatMessage = "must be an international number (E.164)"
	TimeFormatMessage  = "must be HH:mm in 24h format"
)

// RegisterValidators adds the "intlphone" and "hhmm" tags to gin's validator
// and makes validation errors report JSON field names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
		return PhonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return TimePattern.MatchString(fl.Field().String())
	})
}

// ValidationMessage turns a binding error into a short human readable message.
// Errors that are not validation errors (bad JSON, unknown fields) pass through.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "intlphone":
		return field + " " + PhoneFormatMessage
	case "hhmm":
		return field + " " + TimeFormatMessage
	case "datetime":
		return field + " must be a valid ISO 8601 date string"
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "min":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
