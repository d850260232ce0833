// Package validation checks request bodies against their `validate` struct
// tags and reports every violation with the message from the field's
// `message` tag, or `message_<rule>` when one rule needs its own wording.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// Validator wraps a configured validator instance. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	v := validator.New()

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"notblank":   notBlank,
		"minlentrim": minLenTrim,
		"expiry":     expiry,
		"cardtype":   cardType,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}

	return &Validator{validate: v}
}

// Struct validates s, a pointer to a request struct. All violations are
// returned together, in field order, as a validation error.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	typ := reflect.TypeOf(s)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: messageFor(typ, fe),
		})
	}
	return apperror.Validation(fields)
}

// messageFor prefers a rule specific `message_<rule>` tag over the field's
// `message` tag.
func messageFor(typ reflect.Type, fe validator.FieldError) string {
	if f, ok := typ.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("message_" + fe.Tag()); msg != "" {
			return msg
		}
		if msg := f.Tag.Get("message"); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func minLenTrim(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
}

func expiry(fl validator.FieldLevel) bool {
	return expiryRegex.MatchString(fl.Field().String())
}

func cardType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, t := range models.CardTypes {
		if value == t {
			return true
		}
	}
	return false
}
