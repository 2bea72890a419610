package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate caches struct metadata; it is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks v's `validate` tags. The first failing field is
// reported as a ValidationError.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed %q constraint", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q constraint (%s)", fe.Tag(), fe.Param())
		}
		return NewValidationError(toSnake(fe.Field()), msg)
	}
	return NewValidationError("", err.Error())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
