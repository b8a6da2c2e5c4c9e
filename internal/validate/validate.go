// Package validate wraps validator/v10 with the money rules request bodies
// need and reports failures as a field-level list.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Struct when at least one field fails.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MaxMoney is the largest amount a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("money", validateMoney(false))
		_ = v.RegisterValidation("money_gt0", validateMoney(true))
		instance = v
	})
	return instance
}

// validateMoney accepts a decimal string with at most two fractional digits
// and a magnitude of at most MaxMoney. Empty strings pass; pair with required
// when the field is mandatory.
func validateMoney(strictlyPositive bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return false
		}
		if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
			return false
		}
		if d.Abs().GreaterThan(MaxMoney) {
			return false
		}
		if strictlyPositive {
			return d.IsPositive()
		}
		return !d.IsNegative()
	}
}

// Struct validates v and returns Errors on failure.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "money":
		return "must be a non-negative amount up to " + MaxMoney.StringFixed(2) + " with at most 2 decimals"
	case "money_gt0":
		return "must be a positive amount up to " + MaxMoney.StringFixed(2) + " with at most 2 decimals"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag() + " validation"
}
