package person

import (
	"github.com/iota-uz/estate-office/pkg/serrors"
)

var (
	ErrNotFound  = serrors.NewError("PERSON_NOT_FOUND", "person not found", "Person.Errors.NotFound")
	ErrMergeSame = serrors.NewError("PERSON_MERGE_SAME", "a person cannot be merged into itself", "Person.Errors.MergeSame")
)
