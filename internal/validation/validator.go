package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
)

// CrossValidator payloads carry rules that span fields or depend on which
// fields are present, reported through the same accumulated error map as the
// declarative tags.
type CrossValidator interface {
	CrossValidate(add func(field, message string))
}

// Validator wraps validator.Validate with the directory's custom rules and
// translates failures into field-level error maps. It satisfies
// echo.Validator. Errors accumulate: every violated field is reported, the
// validator never stops at the first failure.
type Validator struct {
	validate *validator.Validate
}

// New registers the custom rules. The denylist backs the "uncompromised" tag.
func New(denylist PasswordDenylist) *Validator {
	v := validator.New()

	// Report errors under the payload's JSON field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return validPersonName(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := model.ParseRole(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("uncompromised", func(fl validator.FieldLevel) bool {
		return denylist == nil || !denylist.Compromised(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate implements echo.Validator: sanitize, then evaluate every rule
// against the sanitized payload.
func (v *Validator) Validate(i interface{}) error {
	if s, ok := i.(Sanitizable); ok {
		s.Sanitize()
	}

	fields := map[string][]string{}
	if err := v.validate.Struct(i); err != nil {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range vErrs {
			fields[fe.Field()] = append(fields[fe.Field()], message(fe))
		}
	}

	if cv, ok := i.(CrossValidator); ok {
		cv.CrossValidate(func(field, msg string) {
			fields[field] = append(fields[field], msg)
		})
	}

	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "must match the password"
	case "personname":
		return "must be 2-255 letters, spaces, hyphens or apostrophes, without doubled spacing or punctuation"
	case "strongpassword":
		return "must contain lowercase, uppercase, digit and symbol characters"
	case "role":
		return "must be either administrator or reviewer"
	case "uncompromised":
		return "appears in a known breached-password list"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validPersonName accepts 2-255 runes of unicode letters, spaces, hyphens
// and apostrophes. Separators may not lead, trail, or double up.
func validPersonName(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 || len(runes) > 255 {
		return false
	}
	for i, r := range runes {
		if unicode.IsLetter(r) {
			continue
		}
		if r != ' ' && r != '-' && r != '\'' {
			return false
		}
		if i == 0 || i == len(runes)-1 {
			return false
		}
		if prev := runes[i-1]; prev == ' ' || prev == '-' || prev == '\'' {
			return false
		}
	}
	return true
}

// strongPassword requires one character from each of the lower, upper,
// digit, and symbol classes. Length is enforced separately by the min tag.
func strongPassword(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
