package validator

import "github.com/garrettladley/inbox/internal/apperr"

type Validator interface {
	// Validate validates the fields of the struct and returns a map of errors.
	// returns nil if no errors are found
	Validate() map[string]string
}

func Validate(v Validator) error {
	if fields := v.Validate(); len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}
