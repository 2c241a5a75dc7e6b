package jobs

import (
	"errors"
	"fmt"

	"github.com/iota-uz/estate-office/pkg/serrors"
)

var (
	ErrInvalidConfig = serrors.NewError("JOBS_INVALID_CONFIG", "invalid jobs configuration", "")
	ErrNoHandler     = serrors.NewError("JOBS_NO_HANDLER", "no handler registered for job kind", "")
)

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; the job goes straight to dead.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
