package validation

import (
	"fmt"
	"regexp"
	"strings"

	"scanpay/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const MinPasswordLength = 8

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	Errors []ValidationError
}

func New() *Validator {
	return &Validator{
		Errors: make([]ValidationError, 0),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Error joins all collected messages, or returns "" when valid.
func (v *Validator) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v *Validator) Required(value, field string) {
	v.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (v *Validator) Email(value string) {
	v.Check(emailRegex.MatchString(value), "email", "must be a valid email address")
}

func (v *Validator) Password(value string) {
	v.Check(len(value) >= MinPasswordLength, "password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
}

func (v *Validator) Coordinates(lat, lng float64) {
	v.Check(models.ValidCoordinates(lat, lng), "coordinates", "latitude must be in [-90,90] and longitude in [-180,180]")
}

func (v *Validator) OneOf(value, field string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, "must be one of "+strings.Join(allowed, ", "))
}
