package validation

import (
	"fmt"

	gferrors "github.com/vnykmshr/goasync/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Zero usually selects a default in the calling constructor.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return gferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 for the default or a positive value")
	}
	return nil
}

// ValidateAtLeast validates that value >= minimum.
func ValidateAtLeast(module, field string, value, minimum int) error {
	if value < minimum {
		return gferrors.NewValidationError(module, field, value, fmt.Sprintf("must be at least %d", minimum))
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return gferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateMaxLen validates that a string is no longer than max bytes.
func ValidateMaxLen(module, field string, value string, max int) error {
	if len(value) > max {
		return gferrors.NewValidationError(module, field, len(value), fmt.Sprintf("too long (max %d characters)", max))
	}
	return nil
}
