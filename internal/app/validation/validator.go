package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"rentshare/internal/domain/shared/daterange"
)

var ErrInvalid = errors.New("validation: invalid input")

// FieldError names one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error wraps ErrInvalid with the failing fields.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error { return ErrInvalid }

// StructValidator runs validator/v10 struct tags on commands and queries.
type StructValidator struct {
	once sync.Once
	v    *validator.Validate
}

func New() *StructValidator {
	s := &StructValidator{}
	s.init()
	return s
}

func (s *StructValidator) init() {
	s.once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := strings.Split(field.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
				return name
			}
			return field.Name
		})
		_ = v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
			raw := fl.Field().String()
			if raw == "" {
				return true
			}
			_, err := daterange.ParseDate(raw)
			return err == nil
		})
		s.v = v
	})
}

// Validate checks struct tags. Non-struct messages are accepted.
func (s *StructValidator) Validate(_ context.Context, message any) error {
	s.init()
	if message == nil {
		return nil
	}
	rv := reflect.ValueOf(message)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := s.v.Struct(rv.Interface())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
