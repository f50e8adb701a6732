// Package validation checks request payloads and money amounts.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	apperrors "upipay/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	upiRegex   = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)
	pinRegex   = regexp.MustCompile(`^[0-9]{4,6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("upi", matchString(upiRegex))
	_ = v.RegisterValidation("phone", matchString(phoneRegex))
	_ = v.RegisterValidation("pin", matchString(pinRegex))
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ValidateAmount(d) == nil
	})
	return v
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Struct validates s against its `validate` tags and reports the first
// failing field as INVALID_ARGUMENT.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.InvalidArgument("%s", message(verrs[0]))
	}
	return apperrors.InvalidArgument("invalid request: %v", err)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "upi":
		return "Invalid UPI ID format"
	case "phone":
		return "Phone number must be 10 digits"
	case "pin":
		return "PIN must be 4-6 digits"
	case "money":
		return "Amount must be positive with at most 2 decimal places"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// ValidateAmount rejects non-positive amounts, amounts finer than the
// minimum currency unit and amounts the ledger columns cannot hold.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.InvalidArgument("amount must be positive, got %s", amount.String())
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return apperrors.InvalidArgument("amount %s exceeds the maximum of %s", amount.String(), MaxAmount.Sub(decimal.New(1, -AmountScale)).StringFixed(AmountScale))
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return apperrors.InvalidArgument("amount %s has more than %d decimal places", amount.String(), AmountScale)
	}
	return nil
}
