package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// ValidationError is one failed rule for one field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, fmt.Sprint(e.Value))
}

// Validator collects rule failures across fields so a request or config
// reports every problem at once.
type Validator struct {
	errs []ValidationError
}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Field(name string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(name, value); err != nil {
			v.errs = append(v.errs, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

func (v *Validator) Errors() []ValidationError { return v.errs }

// Error returns the combined failures wrapped around ErrValidation.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

func (v *Validator) ErrorMessage() string {
	parts := make([]string, len(v.errs))
	for i, e := range v.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

type ValidationRule func(name string, value any) *ValidationError

func fail(name string, value any, msg string) *ValidationError {
	return &ValidationError{Field: name, Value: value, Message: msg}
}

func Required(name string, value any) *ValidationError {
	switch v := value.(type) {
	case nil:
		return fail(name, value, "is required")
	case string:
		if strings.TrimSpace(v) == "" {
			return fail(name, value, "is required")
		}
	}
	return nil
}

func MaxLength(n int) ValidationRule {
	return func(name string, value any) *ValidationError {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > n {
			return fail(name, value, fmt.Sprintf("must be at most %d characters", n))
		}
		return nil
	}
}

func NonNegative(name string, value any) *ValidationError {
	if n, ok := value.(int); ok && n < 0 {
		return fail(name, value, "must not be negative")
	}
	return nil
}

// Positive accepts ints and durations.
func Positive(name string, value any) *ValidationError {
	switch v := value.(type) {
	case int:
		if v <= 0 {
			return fail(name, value, "must be positive")
		}
	case time.Duration:
		if v <= 0 {
			return fail(name, value, "must be a positive duration")
		}
	}
	return nil
}

func OneOf(allowed ...string) ValidationRule {
	return func(name string, value any) *ValidationError {
		s, _ := value.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fail(name, value, "must be one of "+strings.Join(allowed, ", "))
	}
}

var personIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// PersonID accepts dataset folder names such as "person_001".
func PersonID(name string, value any) *ValidationError {
	s, _ := value.(string)
	if !personIDRe.MatchString(s) {
		return fail(name, value, "must be letters, digits, '.', '_' or '-'")
	}
	return nil
}

func KnownRule(name string, value any) *ValidationError {
	s, _ := value.(string)
	if !constants.RuleID(s).Valid() {
		return fail(name, value, "is not a known rule id")
	}
	return nil
}

func KnownDocumentType(name string, value any) *ValidationError {
	var dt constants.DocumentType
	switch v := value.(type) {
	case string:
		dt = constants.DocumentType(v)
	case constants.DocumentType:
		dt = v
	}
	if !dt.Valid() {
		return fail(name, value, "is not a known document type")
	}
	return nil
}

// ValidateAndReturnError turns collected failures into an InvalidArgument
// status for RPC handlers.
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}
