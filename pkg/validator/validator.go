package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator builds the shared validator instance. Field errors are keyed
// by the json tag name so they match the casing of the request body.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &FieldErrors{errs: verrs}
		}
		return err
	}
	return nil
}

// FieldErrors wraps validator.ValidationErrors with readable messages.
type FieldErrors struct {
	errs validator.ValidationErrors
}

func (e *FieldErrors) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, fe := range e.errs {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fe.Field(), messageFor(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a field-name to message map for error responses.
func (e *FieldErrors) Fields() map[string]string {
	fields := make(map[string]string, len(e.errs))
	for _, fe := range e.errs {
		fields[fe.Field()] = messageFor(fe)
	}
	return fields
}

// AsFieldErrors unwraps err into *FieldErrors if possible.
func AsFieldErrors(err error) (*FieldErrors, bool) {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate decodes the JSON request body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
