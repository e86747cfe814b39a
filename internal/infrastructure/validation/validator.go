// Package validation runs the input guards applied before a request is sent.
// The server stays authoritative; these rules only spare a round trip on obvious mistakes.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

// Validator wraps go-playground/validator with field names taken from JSON tags.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom DUCA rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("mintrim", func(fl validator.FieldLevel) bool {
		var min int
		if _, err := fmt.Sscanf(fl.Param(), "%d", &min); err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= min
	})

	return &Validator{v: v}
}

// RegisterCustomType makes fields of the given types validate as the value fn returns,
// e.g. a decimal amount validated as a float64 with "gte=0".
func (val *Validator) RegisterCustomType(fn func(reflect.Value) any, types ...any) {
	val.v.RegisterCustomTypeFunc(fn, types...)
}

// Struct validates s and returns a KindValidation *APIError listing every failed field.
func (val *Validator) Struct(s any) error {
	if err := val.v.Struct(s); err != nil {
		return toAPIError(err)
	}
	return nil
}

// Var validates a single value against tag.
func (val *Validator) Var(field any, tag, name string) error {
	if err := val.v.Var(field, tag); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return httpclient.NewValidationError(describe(name, ve[0]))
		}
		return httpclient.NewValidationError(err.Error())
	}
	return nil
}

func toAPIError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return httpclient.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fieldPath(fe), fe))
	}
	return httpclient.NewValidationError(strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name: "Declaration.importador.nombre" -> "importador.nombre".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " es requerido"
	case "email":
		return field + " debe ser un correo válido"
	case "gt":
		return fmt.Sprintf("%s debe ser mayor que %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s debe tener al menos %s caracteres", field, fe.Param())
	case "mintrim":
		return fmt.Sprintf("%s debe tener al menos %s caracteres", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s debe tener %s caracteres", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s debe tener el formato %s", field, layoutHint(fe.Param()))
	case "gte":
		if fe.Param() == "0" {
			return field + " no puede ser negativo"
		}
		return fmt.Sprintf("%s debe ser mayor o igual a %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s no es válido (%s)", field, fe.Tag())
	}
}

func layoutHint(layout string) string {
	if layout == "2006-01-02" {
		return "AAAA-MM-DD"
	}
	return layout
}
