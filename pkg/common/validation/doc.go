// Package validation provides the checks the goasync constructors run over
// their Config structs.
//
// Every helper returns a *errors.ValidationError, so callers can test with
// errors.Is(err, errors.ErrInvalidConfiguration) regardless of which field
// was rejected.
package validation
