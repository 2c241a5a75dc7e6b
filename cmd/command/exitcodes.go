package main

import (
	"errors"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/pkg/serrors"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var verrs serrors.ValidationErrors
	switch {
	case errors.Is(err, person.ErrNotFound):
		return exitNotFound
	case errors.Is(err, person.ErrMergeSame), errors.Is(err, person.ErrInvalidJSON), errors.As(err, &verrs):
		return exitValidation
	default:
		return exitFailure
	}
}
